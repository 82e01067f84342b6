package enums

import "fmt"

// UploadKind names the bulk upload pipelines.
type UploadKind string

const (
	UploadKindProducts  UploadKind = "products"
	UploadKindInventory UploadKind = "inventory"
)

var validUploadKinds = []UploadKind{
	UploadKindProducts,
	UploadKindInventory,
}

func (u UploadKind) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UploadKind.
func (u UploadKind) IsValid() bool {
	for _, candidate := range validUploadKinds {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUploadKind converts raw input into an UploadKind.
func ParseUploadKind(value string) (UploadKind, error) {
	for _, candidate := range validUploadKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid upload kind %q", value)
}
