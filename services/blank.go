package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// blankPages returns the 1-based numbers of the pages whose extracted text is
// empty after trimming whitespace, along with the document's page count. A
// page whose text cannot be extracted is kept and logged.
func blankPages(logger *zap.Logger, data []byte) ([]int, int, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, 0, fmt.Errorf("open PDF: %w", err)
	}

	total := r.NumPage()
	var blank []int
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			blank = append(blank, i)
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			logger.Warn("failed to extract page text, keeping page", zap.Int("page", i), zap.Error(err))
			continue
		}
		if strings.TrimSpace(text) == "" {
			blank = append(blank, i)
		}
	}
	return blank, total, nil
}
