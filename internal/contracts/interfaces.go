package contracts

import (
	"context"
	"time"
)

// SourceLoader reads the complete input snapshot (S0)
// ⭐ SSOT: S0 입력 로딩 인터페이스
type SourceLoader interface {
	Load(ctx context.Context) (*Dataset, error)
}

// MartWriter replaces the persisted output tables (S5)
// ⭐ SSOT: S5 마트 쓰기 인터페이스 (전체 교체, 부분 커밋 없음)
type MartWriter interface {
	Write(ctx context.Context, run RunInfo, out *OutputSet) error
}

// RunInfo identifies one pipeline run
type RunInfo struct {
	RunID      string    `json:"run_id"`
	ConfigHash string    `json:"config_hash"`
	StartedAt  time.Time `json:"started_at"`
}
