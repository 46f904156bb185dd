package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그, run log row에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   S0 → S1 → S2 → S3 → S4 → S5
//   Source  Bridge  FX  Exposure  Aggregate  Mart

// Stage represents a pipeline stage
type Stage string

const (
	// StageSource S0: 원천 데이터 로딩
	// 책임: 최신 스냅샷 추출, 스키마 검증 (테이블/컬럼 누락 시 중단)
	// 위치: internal/s0_source/
	StageSource Stage = "S0_SOURCE"

	// StageBridge S1: 펀드 → 마스터 브리지
	// 책임: ISIN 토큰 매칭, fallback 매핑, 우선순위 병합, 비중 정규화
	// 위치: internal/s1_bridge/
	StageBridge Stage = "S1_BRIDGE"

	// StageFX S2: 기준통화 환산
	// 책임: 환율 해석 (exact → latest → default 1), AUM 환산
	// 위치: internal/s2_fx/
	StageFX Stage = "S2_FX"

	// StageExposure S3: look-through 노출 계산
	// 책임: 종목/섹터/지역 비중 cascade, 국가/지역 분류
	// 위치: internal/s3_exposure/
	StageExposure Stage = "S3_EXPOSURE"

	// StageAggregate S4: 집계
	// 책임: 커버리지, 순위, 가중 수익률, 대시보드
	// 위치: internal/s4_aggregate/
	StageAggregate Stage = "S4_AGGREGATE"

	// StageMart S5: 마트 적재
	// 책임: 단일 트랜잭션 전체 교체, 뷰 생성, run log
	// 위치: internal/mart/
	StageMart Stage = "S5_MART"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S1")
func (s Stage) ShortName() string {
	switch s {
	case StageSource:
		return "S0"
	case StageBridge:
		return "S1"
	case StageFX:
		return "S2"
	case StageExposure:
		return "S3"
	case StageAggregate:
		return "S4"
	case StageMart:
		return "S5"
	default:
		return "UNKNOWN"
	}
}

// Description returns Korean description of the stage
func (s Stage) Description() string {
	switch s {
	case StageSource:
		return "원천 데이터 로딩"
	case StageBridge:
		return "브리지 매핑/정규화"
	case StageFX:
		return "기준통화 환산"
	case StageExposure:
		return "노출 계산"
	case StageAggregate:
		return "집계/대시보드"
	case StageMart:
		return "마트 적재"
	default:
		return "알 수 없음"
	}
}

// Label returns "S1:Bridge" style labels used in run results
func (s Stage) Label() string {
	switch s {
	case StageSource:
		return "S0:Source"
	case StageBridge:
		return "S1:Bridge"
	case StageFX:
		return "S2:FX"
	case StageExposure:
		return "S3:Exposure"
	case StageAggregate:
		return "S4:Aggregate"
	case StageMart:
		return "S5:Mart"
	default:
		return "UNKNOWN"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageSource,
		StageBridge,
		StageFX,
		StageExposure,
		StageAggregate,
		StageMart,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}

// PipelineResult represents the result of a pipeline stage execution
type PipelineResult struct {
	Stage       Stage                  `json:"stage"`
	Success     bool                   `json:"success"`
	InputCount  int                    `json:"input_count"`
	OutputCount int                    `json:"output_count"`
	Duration    int64                  `json:"duration_ms"`
	Error       string                 `json:"error,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}
