package cloud

import (
	"testing"
)

func TestAddAttributeAssignsDenseIDs(t *testing.T) {
	pc := New(10)
	pos, err := pc.AddAttribute(KindPosition, DataTypeFloat32, 3)
	if err != nil {
		t.Fatal(err)
	}
	col, err := pc.AddAttribute(KindColor, DataTypeUint8, 3)
	if err != nil {
		t.Fatal(err)
	}
	if pos != 0 || col != 1 {
		t.Errorf("expected ids 0 and 1, got %d and %d", pos, col)
	}
	if pc.NumAttributes() != 2 {
		t.Errorf("NumAttributes = %d", pc.NumAttributes())
	}
	if pc.Attribute(pos).Kind() != KindPosition {
		t.Errorf("attribute 0 kind = %v", pc.Attribute(pos).Kind())
	}
	if pc.Attribute(5) != nil {
		t.Error("out-of-range id should return nil")
	}
}

func TestAddAttributeRejectsBadShapes(t *testing.T) {
	pc := New(4)
	if _, err := pc.AddAttribute(KindGeneric, DataTypeFloat32, 0); err == nil {
		t.Error("expected error for zero components")
	}
	if _, err := pc.AddAttribute(KindGeneric, DataTypeInvalid, 3); err == nil {
		t.Error("expected error for invalid data type")
	}
}

func TestFloat32Accessors(t *testing.T) {
	pc := New(3)
	id, err := pc.AddAttribute(KindPosition, DataTypeFloat32, 3)
	if err != nil {
		t.Fatal(err)
	}
	att := pc.Attribute(id)
	att.SetFloat32(2, 1, 42.5)
	if got := att.Float32(2, 1); got != 42.5 {
		t.Errorf("Float32(2,1) = %v, want 42.5", got)
	}
	if got := att.Float32(0, 0); got != 0 {
		t.Errorf("untouched scalar = %v, want 0", got)
	}
}

func TestReadWriteByteOffsets(t *testing.T) {
	att := NewAttribute(KindGeneric, DataTypeFloat32, 2, 2)
	entry := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if err := att.Write(8, entry); err != nil {
		t.Fatal(err)
	}
	got := make([]byte, 8)
	if err := att.Read(8, got); err != nil {
		t.Fatal(err)
	}
	for i := range entry {
		if got[i] != entry[i] {
			t.Fatalf("byte %d = %d, want %d", i, got[i], entry[i])
		}
	}
	if err := att.Write(12, entry); err == nil {
		t.Error("expected out-of-bounds write to fail")
	}
	if err := att.Read(-1, got); err == nil {
		t.Error("expected negative-offset read to fail")
	}
}

func TestNamedAttribute(t *testing.T) {
	pc := New(1)
	if pc.NamedAttribute(KindNormal) != nil {
		t.Error("empty cloud should have no normal attribute")
	}
	if _, err := pc.AddAttribute(KindNormal, DataTypeFloat32, 3); err != nil {
		t.Fatal(err)
	}
	if pc.NamedAttribute(KindNormal) == nil {
		t.Error("expected to find normal attribute")
	}
}

func TestEntrySize(t *testing.T) {
	att := NewAttribute(KindColor, DataTypeUint8, 4, 1)
	if att.EntrySize() != 4 {
		t.Errorf("EntrySize = %d, want 4", att.EntrySize())
	}
	if len(att.Bytes()) != 4 {
		t.Errorf("backing buffer = %d bytes, want 4", len(att.Bytes()))
	}
}
