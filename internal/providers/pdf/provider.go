package pdf

import (
	"context"
	"io"
)

type RosterRow struct {
	DisplayName string
	Email       string
	Role        string
	Note        string
	JoinedAt    string
}

type RosterData struct {
	StudioName  string
	ClassTitle  string
	GeneratedAt string
	Rows        []RosterRow
}

type Provider interface {
	GenerateRoster(ctx context.Context, data RosterData) (io.Reader, error)
}

type NoOpProvider struct{}

func (p *NoOpProvider) GenerateRoster(ctx context.Context, data RosterData) (io.Reader, error) {
	return nil, nil
}
