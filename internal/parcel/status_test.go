package parcel

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNewStatus_RequiredKeys(t *testing.T) {
	tests := []struct {
		name    string
		typ     StatusType
		data    map[string]any
		wantErr bool
	}{
		{
			name: "created with timestamp",
			typ:  TypeCreated,
			data: map[string]any{"timestamp": "2024-01-05T10:00:00Z"},
		},
		{
			name:    "created missing timestamp",
			typ:     TypeCreated,
			wantErr: true,
		},
		{
			name: "departed-origin with location",
			typ:  TypeDepartedOrigin,
			data: map[string]any{"location": "Lisboa PORTUGAL"},
		},
		{
			name:    "departed-origin without location",
			typ:     TypeDepartedOrigin,
			data:    map[string]any{},
			wantErr: true,
		},
		{
			name: "arrived-destination with location",
			typ:  TypeArrivedDestination,
			data: map[string]any{"location": "Porto PORTUGAL"},
		},
		{
			name: "pickup with location and until",
			typ:  TypePickup,
			data: map[string]any{"location": "Loja CTT Faro", "until": "2024-02-01T00:00:00Z"},
		},
		{
			name:    "pickup missing until",
			typ:     TypePickup,
			data:    map[string]any{"location": "Loja CTT Faro"},
			wantErr: true,
		},
		{
			name: "delivered with to",
			typ:  TypeDelivered,
			data: map[string]any{"to": "J. Silva"},
		},
		{
			name:    "delivered with wrong key",
			typ:     TypeDelivered,
			data:    map[string]any{"recipient": "J. Silva"},
			wantErr: true,
		},
		{
			name: "in-transit takes no data",
			typ:  TypeInTransit,
		},
		{
			name: "posted with empty map",
			typ:  TypePosted,
			data: map[string]any{},
		},
		{
			name:    "issue rejects stray data",
			typ:     TypeIssue,
			data:    map[string]any{"reason": "damaged"},
			wantErr: true,
		},
		{
			name:    "delivered rejects extra keys",
			typ:     TypeDelivered,
			data:    map[string]any{"to": "J. Silva", "signed": true},
			wantErr: true,
		},
		{
			name:    "unknown type",
			typ:     StatusType("teleported"),
			data:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStatus(tt.typ, "desc", tt.data)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewStatus(%q, %v) succeeded, want error", tt.typ, tt.data)
				}
				if s != nil {
					t.Errorf("NewStatus returned a status alongside error %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewStatus(%q, %v) failed: %v", tt.typ, tt.data, err)
			}
			if s.Type != tt.typ {
				t.Errorf("Type = %q, want %q", s.Type, tt.typ)
			}
		})
	}
}

func TestNewStatus_ValidationErrorDetails(t *testing.T) {
	_, err := NewStatus(TypePickup, "", map[string]any{"location": "x"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error %v is not a *ValidationError", err)
	}
	if verr.Type != TypePickup {
		t.Errorf("Type = %q, want %q", verr.Type, TypePickup)
	}
	if len(verr.Expected) != 2 {
		t.Errorf("Expected = %v, want the pickup key pair", verr.Expected)
	}
}

func TestStatus_MarshalJSON(t *testing.T) {
	s, err := NewStatus(TypeDelivered, "Delivered to neighbour", map[string]any{"to": "neighbour"})
	if err != nil {
		t.Fatal(err)
	}

	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}

	var decoded struct {
		Type        string         `json:"type"`
		Description string         `json:"description"`
		Data        map[string]any `json:"data"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Type != "delivered" {
		t.Errorf("type = %q, want %q", decoded.Type, "delivered")
	}
	if decoded.Description != "Delivered to neighbour" {
		t.Errorf("description = %q", decoded.Description)
	}
	if decoded.Data["to"] != "neighbour" {
		t.Errorf("data.to = %v, want %q", decoded.Data["to"], "neighbour")
	}
}

func TestNewStatus_CopiesData(t *testing.T) {
	data := map[string]any{"to": "porter"}
	s, err := NewStatus(TypeDelivered, "", data)
	if err != nil {
		t.Fatal(err)
	}
	data["to"] = "someone else"
	if s.Data["to"] != "porter" {
		t.Error("status data aliases the caller's map")
	}
}
