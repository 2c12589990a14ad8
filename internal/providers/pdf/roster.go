package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateRoster(ctx context.Context, data RosterData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, data.StudioName, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(10,
		text.NewCol(12, "Class roster: "+data.ClassTitle, props.Text{
			Size:  12,
			Align: align.Left,
		}),
	)

	m.AddRow(8,
		text.NewCol(12, "Generated "+data.GeneratedAt, props.Text{
			Size: 8,
		}),
	)

	// Table header
	m.AddRow(10,
		text.NewCol(4, "Name", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(4, "Email", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Role", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Joined", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	m.AddRow(1, col.New(12))

	for _, row := range data.Rows {
		m.AddRow(8,
			text.NewCol(4, row.DisplayName, props.Text{Size: 9}),
			text.NewCol(4, row.Email, props.Text{Size: 9}),
			text.NewCol(2, row.Role, props.Text{Size: 9}),
			text.NewCol(2, row.JoinedAt, props.Text{Size: 9, Align: align.Right}),
		)
		if row.Note != "" {
			m.AddRow(6,
				text.NewCol(12, "Note: "+row.Note, props.Text{Size: 8}),
			)
		}
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
