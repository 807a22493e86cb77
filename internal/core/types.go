package core

import (
	"time"
)

type BlockType string

const (
	BlockText   BlockType = "text"
	BlockQRCode BlockType = "qrCode"
)

// StyleMap carries presentation hints for the rendering sink. The core
// never interprets its keys; they pass through verbatim.
type StyleMap map[string]string

type ContentBlock struct {
	Type     BlockType `json:"type"`
	Value    string    `json:"value"`
	Width    string    `json:"width,omitempty"`
	Height   string    `json:"height,omitempty"`
	FontSize int       `json:"fontsize,omitempty"`
	Style    StyleMap  `json:"style,omitempty"`
}

// OrderItem is one denormalized order line awaiting print. ID, Qty,
// Title and Code are always set; Addons, Remark and Delivery come from
// nullable columns and are empty when absent.
type OrderItem struct {
	ID           int64
	OrderID      int64
	Qty          int
	Set          int
	Date         time.Time
	Title        string
	Code         string
	SKU          string
	Addons       string
	Remark       string
	Delivery     string
	DeliveryCode string
	OrderBy      string
}

type Destination struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type PrinterInfo struct {
	Name        string      `json:"name"`
	Destination Destination `json:"destination"`
}

type PrintJob struct {
	ID          int64          `json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	CreatedBy   string         `json:"created_by"`
	Content     []ContentBlock `json:"content"`
	PrinterInfo PrinterInfo    `json:"printer_info"`
}

type SkippedItem struct {
	ID    int64  `json:"id"`
	Error string `json:"error"`
}

// Batch is the result of one dispatch cycle. Jobs keep the selector's
// order. ClaimID is set only when claiming is enabled.
type Batch struct {
	ClaimID string        `json:"claim_id,omitempty"`
	Jobs    []PrintJob    `json:"jobs"`
	Skipped []SkippedItem `json:"skipped,omitempty"`
}
