package core

import (
	"errors"
	"strconv"
	"testing"
	"time"
)

func testItem() OrderItem {
	return OrderItem{
		ID:      42,
		OrderID: 7,
		Qty:     2,
		Set:     75,
		Date:    time.Date(2025, 3, 14, 9, 26, 53, 0, time.Local),
		Title:   "Widget",
		Code:    "GR001",
		SKU:     "SKU1",
		Remark:  "no ice",
		OrderBy: "sokha",
	}
}

func TestFormatBlockOrder(t *testing.T) {
	f := NewFormatter(PlainLabels)

	blocks, err := f.Format(testItem())
	if err != nil {
		t.Fatalf("format: %v", err)
	}

	want := []struct {
		typ   BlockType
		value string
	}{
		{BlockText, "D75"},
		{BlockText, "2025-03-14 09:26:53"},
		{BlockText, "sokha"},
		{BlockText, "x2"},
		{BlockText, dividerText},
		{BlockText, "Widget (SKU1)"},
		{BlockText, "   + no ice"},
		{BlockText, dividerText},
		{BlockQRCode, "42"},
	}

	if len(blocks) != len(want) {
		t.Fatalf("expected %d blocks, got %d", len(want), len(blocks))
	}
	for i, w := range want {
		if blocks[i].Type != w.typ {
			t.Errorf("block %d: type %q, want %q", i, blocks[i].Type, w.typ)
		}
		if blocks[i].Value != w.value {
			t.Errorf("block %d: value %q, want %q", i, blocks[i].Value, w.value)
		}
	}

	qr := blocks[len(blocks)-1]
	if qr.Width != "100" || qr.Height != "100" {
		t.Errorf("qr dimensions %sx%s, want 100x100", qr.Width, qr.Height)
	}
}

func TestFormatTableLabel(t *testing.T) {
	cases := []struct {
		set  int
		want string
	}{
		{1, "1"},
		{50, "50"},
		{51, "D51"},
		{75, "D75"},
		{120, "D120"},
	}

	f := NewFormatter(PlainLabels)
	for _, c := range cases {
		item := testItem()
		item.Set = c.set
		blocks, err := f.Format(item)
		if err != nil {
			t.Fatalf("set %d: %v", c.set, err)
		}
		if blocks[0].Value != c.want {
			t.Errorf("set %d: header %q, want %q", c.set, blocks[0].Value, c.want)
		}
	}
}

func TestFormatDeliveryBlock(t *testing.T) {
	f := NewFormatter(PlainLabels)

	item := testItem()
	item.Delivery = "QD"
	item.DeliveryCode = "12"

	blocks, err := f.Format(item)
	if err != nil {
		t.Fatalf("format: %v", err)
	}

	// Exactly one delivery block, immediately after the creator block.
	found := 0
	for i, b := range blocks {
		if b.Value == "QD-12" {
			found++
			if i != 3 {
				t.Errorf("delivery block at index %d, want 3", i)
			}
		}
	}
	if found != 1 {
		t.Fatalf("expected one delivery block, found %d", found)
	}

	item.Delivery = ""
	blocks, err = f.Format(item)
	if err != nil {
		t.Fatalf("format without delivery: %v", err)
	}
	for _, b := range blocks {
		if b.Value == "QD-12" {
			t.Fatal("delivery block emitted for item without delivery")
		}
	}
}

func TestFormatOptionalFields(t *testing.T) {
	f := NewFormatter(PlainLabels)

	item := testItem()
	item.Addons = ""
	item.Remark = ""
	item.Delivery = ""

	blocks, err := f.Format(item)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if len(blocks) != 8 {
		t.Fatalf("expected 8 blocks with no optional fields, got %d", len(blocks))
	}

	item.Addons = "extra cheese"
	item.Remark = "rush"
	blocks, err = f.Format(item)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if len(blocks) != 10 {
		t.Fatalf("expected 10 blocks with addons and remark, got %d", len(blocks))
	}
	if blocks[6].Value != "   + extra cheese" {
		t.Errorf("addons block %q", blocks[6].Value)
	}
	if blocks[7].Value != "   + rush" {
		t.Errorf("remark block %q", blocks[7].Value)
	}
}

func TestFormatMissingCode(t *testing.T) {
	f := NewFormatter(PlainLabels)

	item := testItem()
	item.Code = ""

	_, err := f.Format(item)
	if err == nil {
		t.Fatal("expected error for empty code")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if verr.ItemID != 42 || verr.Field != "code" {
		t.Errorf("unexpected validation error: %+v", verr)
	}
}

func TestFormatKhmerLabels(t *testing.T) {
	f := NewFormatter(KhmerLabels)

	blocks, err := f.Format(testItem())
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if blocks[0].Value != "តុលេខ: D75" {
		t.Errorf("header %q", blocks[0].Value)
	}
	if blocks[3].Value != "ចំនួន: x2" {
		t.Errorf("qty %q", blocks[3].Value)
	}
	if blocks[5].Value != "ទំនិញ:   Widget (SKU1)" {
		t.Errorf("item %q", blocks[5].Value)
	}
}

func TestFormatStylesAreFresh(t *testing.T) {
	f := NewFormatter(PlainLabels)

	first, _ := f.Format(testItem())
	first[0].Style["fontSize"] = "99px"

	second, _ := f.Format(testItem())
	if second[0].Style["fontSize"] != "20px" {
		t.Fatal("style map shared across Format calls")
	}
}

func TestFormatDeterministic(t *testing.T) {
	f := NewFormatter(PlainLabels)
	item := testItem()

	a, err := f.Format(item)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	b, err := f.Format(item)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Value != b[i].Value || a[i].Type != b[i].Type {
			t.Errorf("block %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestLabelsByName(t *testing.T) {
	if _, ok := LabelsByName("plain"); !ok {
		t.Error("plain labels missing")
	}
	if _, ok := LabelsByName(""); !ok {
		t.Error("empty name should resolve to default labels")
	}
	if _, ok := LabelsByName("khmer"); !ok {
		t.Error("khmer labels missing")
	}
	if _, ok := LabelsByName("klingon"); ok {
		t.Error("unknown label set should not resolve")
	}
}

func TestQRPayloadIsItemID(t *testing.T) {
	f := NewFormatter(PlainLabels)
	for _, id := range []int64{1, 42, 987654321} {
		item := testItem()
		item.ID = id
		blocks, err := f.Format(item)
		if err != nil {
			t.Fatalf("format: %v", err)
		}
		qr := blocks[len(blocks)-1]
		if qr.Type != BlockQRCode {
			t.Fatalf("terminal block is %q, want qrCode", qr.Type)
		}
		if qr.Value != strconv.FormatInt(id, 10) {
			t.Errorf("qr payload %q, want %d", qr.Value, id)
		}
	}
}
