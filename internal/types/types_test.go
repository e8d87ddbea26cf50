package types

import (
	"strings"
	"testing"
)

func TestTypeTag(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid GPU tag", "GPU", false},
		{"valid PGA tag", "PGA", false},
		{"valid ASC tag", "ASC", false},
		{"valid tag with digit", "GPU2", false},
		{"empty tag", "", true},
		{"lowercase tag", "gpu", true},
		{"mixed case tag", "Gpu", true},
		{"tag with space", "G PU", true},
		{"tag starting with digit", "2GPU", true},
		{"tag with underscore", "GPU_X", true},
		{"too long tag", strings.Repeat("G", 17), true},
		{"valid max length", strings.Repeat("G", 16), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag, err := NewTypeTag(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewTypeTag() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && !tag.IsValid() {
				t.Errorf("TypeTag.IsValid() = false, want true")
			}
			if !tt.wantErr && tag.String() != tt.input {
				t.Errorf("TypeTag.String() = %v, want %v", tag.String(), tt.input)
			}
		})
	}
}

func TestTypeTagFieldPrefix(t *testing.T) {
	tests := []struct {
		name     string
		tag      TypeTag
		ident    int
		expected FieldName
	}{
		{"GPU index zero", TypeTag("GPU"), 0, FieldName("gpu_0")},
		{"PGA double digit", TypeTag("PGA"), 11, FieldName("pga_11")},
		{"ASC single digit", TypeTag("ASC"), 5, FieldName("asc_5")},
		{"tag with digit", TypeTag("GPU2"), 3, FieldName("gpu2_3")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.tag.FieldPrefix(tt.ident)
			if got != tt.expected {
				t.Errorf("TypeTag.FieldPrefix() = %v, want %v", got, tt.expected)
			}
			if !got.IsValid() {
				t.Errorf("FieldName.IsValid() = false for %v, want true", got)
			}
		})
	}
}

func TestFieldName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid prefix", "gpu_0", false},
		{"valid underscore start", "_hidden", false},
		{"valid plain word", "total", false},
		{"empty name", "", true},
		{"starts with digit", "0gpu", true},
		{"contains hyphen", "gpu-0", true},
		{"contains dot", "gpu.0", true},
		{"contains space", "gpu 0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fieldName, err := NewFieldName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewFieldName() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && !fieldName.IsValid() {
				t.Errorf("FieldName.IsValid() = false, want true")
			}
		})
	}
}

func TestValidateHost(t *testing.T) {
	tests := []struct {
		name    string
		host    string
		wantErr bool
	}{
		{"localhost", "localhost", false},
		{"loopback IPv4", "127.0.0.1", false},
		{"loopback IPv6", "::1", false},
		{"private IPv4", "192.168.1.10", false},
		{"hostname with domain", "miner.example.com", false},
		{"hostname with hyphen", "rig-01", false},
		{"empty host", "", true},
		{"leading hyphen", "-miner", true},
		{"trailing hyphen", "miner-", true},
		{"double dot", "miner..local", true},
		{"too long", strings.Repeat("a", 254), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHost(tt.host)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateHost(%q) error = %v, wantErr %v", tt.host, err, tt.wantErr)
			}
		})
	}
}
