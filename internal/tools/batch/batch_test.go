package batch

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestParseMessageIDs(t *testing.T) {
	tests := []struct {
		name    string
		input   interface{}
		max     int
		want    []string
		wantErr bool
	}{
		{
			name:  "single id",
			input: "18c2f",
			want:  []string{"18c2f"},
		},
		{
			name:  "comma separated",
			input: "a, b ,c",
			want:  []string{"a", "b", "c"},
		},
		{
			name:  "array",
			input: []interface{}{"id1", "id2", "id3"},
			want:  []string{"id1", "id2", "id3"},
		},
		{
			name:  "duplicates dropped in order",
			input: []interface{}{"id2", "id1", "id2"},
			want:  []string{"id2", "id1"},
		},
		{
			name:  "blank entries skipped",
			input: "a,,b,",
			want:  []string{"a", "b"},
		},
		{
			name:    "nil input",
			input:   nil,
			wantErr: true,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
		{
			name:    "empty array",
			input:   []interface{}{},
			wantErr: true,
		},
		{
			name:    "array with non-string",
			input:   []interface{}{"id1", 123},
			wantErr: true,
		},
		{
			name:    "wrong type",
			input:   42.0,
			wantErr: true,
		},
		{
			name:    "too many",
			input:   "a,b,c",
			max:     2,
			wantErr: true,
		},
		{
			name:  "at the limit",
			input: "a,b",
			max:   2,
			want:  []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMessageIDs(tt.input, "messageIds", tt.max)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMessageIDs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseMessageIDs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApply(t *testing.T) {
	var calls []string
	res := Apply(context.Background(), "Work", []string{"m1", "m2", "m3"}, func(ctx context.Context, id string) error {
		calls = append(calls, id)
		if id == "m2" {
			return errors.New("quota exceeded")
		}
		return nil
	})

	if !reflect.DeepEqual(calls, []string{"m1", "m2", "m3"}) {
		t.Errorf("calls = %v, want every message in order", calls)
	}
	if res.Label != "Work" || res.Total != 3 || res.Applied != 2 || res.Failed != 1 {
		t.Errorf("unexpected counts: %+v", res)
	}
	want := Item{MessageID: "m2", Status: StatusError, Error: "quota exceeded"}
	if res.Items[1] != want {
		t.Errorf("Items[1] = %+v, want %+v", res.Items[1], want)
	}
	if res.Items[0].Status != StatusApplied || res.Items[2].Status != StatusApplied {
		t.Errorf("expected m1 and m3 applied: %+v", res.Items)
	}
}

func TestApply_StopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	res := Apply(ctx, "Work", []string{"m1", "m2"}, func(ctx context.Context, id string) error {
		calls++
		cancel()
		return nil
	})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if res.Applied != 1 || res.Failed != 1 {
		t.Errorf("unexpected counts: %+v", res)
	}
	if res.Items[1].Error != context.Canceled.Error() {
		t.Errorf("Items[1].Error = %q, want %q", res.Items[1].Error, context.Canceled.Error())
	}
}
