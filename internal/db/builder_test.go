package db

import "testing"

func TestIndexBuilder_ItemSchema(t *testing.T) {
	idx := NewIndex("items-idx").
		Prefix("itemradar:item:").
		Tag("$.type", "type").
		Tag("$.status", "status").
		Tag("$.category", "category").
		VectorHNSW("$.vector", "vector", 1536, DistanceCosine, 16, 200).
		MustBuild()

	if err := idx.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.StorageType != StorageJSON {
		t.Errorf("storage = %q, want JSON", idx.StorageType)
	}
	if len(idx.Fields) != 4 {
		t.Fatalf("fields count = %d, want 4", len(idx.Fields))
	}
	vec := idx.Fields[3]
	if vec.Type != IndexFieldVector || vec.VectorAlgo != VectorHNSW || vec.VectorDim != 1536 {
		t.Errorf("vector field = %+v", vec)
	}
}

func TestIndexBuilder_VectorRequiresDim(t *testing.T) {
	_, err := NewIndex("bad").VectorHNSW("$.vector", "vector", 0, DistanceCosine, 0, 0).Build()
	if err == nil {
		t.Fatal("expected error for zero DIM")
	}
}

func TestIndexBuilder_DuplicateAlias(t *testing.T) {
	_, err := NewIndex("bad").Tag("$.type", "type").Text("$.other", "type").Build()
	if err == nil {
		t.Fatal("expected error for duplicate alias")
	}
}

func TestTagFilter_Escaping(t *testing.T) {
	got := TagFilter("category", "bags & luggage")
	want := `@category:{bags\ \&\ luggage}`
	if got != want {
		t.Fatalf("TagFilter = %q, want %q", got, want)
	}
}

func TestAllFilters_SkipsEmpty(t *testing.T) {
	got := AllFilters(TagFilter("type", "found"), "", TagFilter("status", "active"))
	want := `@type:{found} @status:{active}`
	if got != want {
		t.Fatalf("AllFilters = %q, want %q", got, want)
	}
}

func TestIsValidIdentifier(t *testing.T) {
	if !IsValidIdentifier("items-idx_1") {
		t.Error("expected valid identifier")
	}
	if IsValidIdentifier("bad name") || IsValidIdentifier("") {
		t.Error("expected invalid identifier")
	}
}
