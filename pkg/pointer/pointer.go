package pointer

// Uint8 returns a pointer to the provided uint8 value
func Uint8(value uint8) *uint8 {
	return &value
}

// Uint8IfValid returns a pointer to the value if it's valid, otherwise nil
func Uint8IfValid(valid bool, value uint8) *uint8 {
	if valid {
		return &value
	}
	return nil
}

// Uint8Copy returns a pointer that's a copy of the provided value
func Uint8Copy(value *uint8) *uint8 {
	if value == nil {
		return nil
	}

	return Uint8(*value)
}

// Uint8Equal reports whether both pointers are nil or point to equal values
func Uint8Equal(a, b *uint8) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
