package core

import (
	"fmt"
	"strconv"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	dividerText     = "--------------------------------"

	qrWidth    = "100"
	qrHeight   = "100"
	qrFontSize = 12

	fontFamily = "Hanuman, 'Courier New', Courier, monospace"
)

// LabelSet holds the caption format strings around each block value.
// Plain is the default; the Khmer set is what the deployed sites print.
type LabelSet struct {
	Table     string
	Timestamp string
	Creator   string
	Delivery  string
	Qty       string
	Item      string
	Note      string
}

var PlainLabels = LabelSet{
	Table:     "%s",
	Timestamp: "%s",
	Creator:   "%s",
	Delivery:  "%s-%s",
	Qty:       "x%d",
	Item:      "%s (%s)",
	Note:      "   + %s",
}

var KhmerLabels = LabelSet{
	Table:     "តុលេខ: %s",
	Timestamp: "កាលបរិច្ឆេទ: %s",
	Creator:   "បញ្ជាទិញដោយ: %s",
	Delivery:  "ប្រភេទ: វេចខ្ចប់ (%s-%s) ",
	Qty:       "ចំនួន: x%d",
	Item:      "ទំនិញ:   %s (%s)",
	Note:      "   + %s",
}

func LabelsByName(name string) (LabelSet, bool) {
	switch name {
	case "", "plain":
		return PlainLabels, true
	case "khmer":
		return KhmerLabels, true
	}
	return LabelSet{}, false
}

// Formatter turns an OrderItem into the ordered block sequence a ticket
// printer renders. Pure and safe for concurrent use.
type Formatter struct {
	labels LabelSet
}

func NewFormatter(labels LabelSet) *Formatter {
	return &Formatter{labels: labels}
}

// Format never fails on missing optional fields. An empty product code
// is a caller contract violation and returns a ValidationError.
func (f *Formatter) Format(item OrderItem) ([]ContentBlock, error) {
	if item.Code == "" {
		return nil, &ValidationError{ItemID: item.ID, Field: "code", Reason: "empty"}
	}

	blocks := make([]ContentBlock, 0, 11)
	blocks = append(blocks,
		ContentBlock{Type: BlockText, Value: fmt.Sprintf(f.labels.Table, tableLabel(item.Set)), Style: styleHeader()},
		ContentBlock{Type: BlockText, Value: fmt.Sprintf(f.labels.Timestamp, item.Date.Local().Format(timestampLayout)), Style: styleBody()},
		ContentBlock{Type: BlockText, Value: fmt.Sprintf(f.labels.Creator, item.OrderBy), Style: styleBody()},
	)

	if item.Delivery != "" {
		blocks = append(blocks, ContentBlock{
			Type:  BlockText,
			Value: fmt.Sprintf(f.labels.Delivery, item.Delivery, item.DeliveryCode),
			Style: styleBody(),
		})
	}

	blocks = append(blocks,
		ContentBlock{Type: BlockText, Value: fmt.Sprintf(f.labels.Qty, item.Qty), Style: styleBody()},
		ContentBlock{Type: BlockText, Value: dividerText, Style: styleDivider()},
		ContentBlock{Type: BlockText, Value: fmt.Sprintf(f.labels.Item, item.Title, item.SKU), Style: styleItem()},
	)

	if item.Addons != "" {
		blocks = append(blocks, ContentBlock{Type: BlockText, Value: fmt.Sprintf(f.labels.Note, item.Addons), Style: styleBody()})
	}
	if item.Remark != "" {
		blocks = append(blocks, ContentBlock{Type: BlockText, Value: fmt.Sprintf(f.labels.Note, item.Remark), Style: styleBody()})
	}

	blocks = append(blocks,
		ContentBlock{Type: BlockText, Value: dividerText, Style: styleDivider()},
		ContentBlock{
			Type:     BlockQRCode,
			Value:    strconv.FormatInt(item.ID, 10),
			Width:    qrWidth,
			Height:   qrHeight,
			FontSize: qrFontSize,
			Style:    styleQR(),
		},
	)

	return blocks, nil
}

// Table numbers above 50 denote the secondary area and print with a D
// prefix.
func tableLabel(set int) string {
	if set > 50 {
		return "D" + strconv.Itoa(set)
	}
	return strconv.Itoa(set)
}

// Style templates mirror the deployed rendering sinks exactly. Fresh
// maps per block, so callers can mutate a job without bleeding into the
// next one.

func styleHeader() StyleMap {
	return StyleMap{
		"fontSize":   "20px",
		"fontWeight": "bold",
		"fontFamily": fontFamily,
	}
}

func styleBody() StyleMap {
	return StyleMap{
		"fontSize":   "18px",
		"fontWeight": "bold",
		"fontFamily": fontFamily,
	}
}

func styleDivider() StyleMap {
	return StyleMap{
		"fontFamily": fontFamily,
	}
}

func styleItem() StyleMap {
	s := styleBody()
	s["whiteSpace"] = "pre-wrap"
	s["width"] = "257px"
	s["display"] = "block"
	s["wordBreak"] = "break-word"
	return s
}

func styleQR() StyleMap {
	return StyleMap{
		"textAlign":  "center",
		"fontFamily": fontFamily,
		"margin":     "10 20px 20 20px",
	}
}
