package bsatn

// EncodeSlice writes a u32 count followed by count encodings of write,
// called once per element in order.
func EncodeSlice[T any](e *Encoder, items []T, write func(*Encoder, T)) error {
	if err := e.WriteLenPrefix(len(items)); err != nil {
		return err
	}
	for _, item := range items {
		write(e, item)
	}
	return nil
}

// EncodeSliceErr is EncodeSlice for element encoders that can themselves
// fail (e.g. they write a string or nested bytes field).
func EncodeSliceErr[T any](e *Encoder, items []T, write func(*Encoder, T) error) error {
	if err := e.WriteLenPrefix(len(items)); err != nil {
		return err
	}
	for _, item := range items {
		if err := write(e, item); err != nil {
			return err
		}
	}
	return nil
}

// DecodeSlice reads a u32 count and then that many elements with read.
func DecodeSlice[T any](d *Decoder, read func(*Decoder) (T, error)) ([]T, error) {
	n, err := d.readLenPrefix()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		v, err := read(d)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// EncodeOptional writes the presence tag followed by the payload, if any.
func EncodeOptional[T any](e *Encoder, v *T, write func(*Encoder, T)) {
	e.WriteOptionTag(v != nil)
	if v != nil {
		write(e, *v)
	}
}

// DecodeOptional reads the presence tag and, if present, a payload.
func DecodeOptional[T any](d *Decoder, read func(*Decoder) (T, error)) (*T, error) {
	present, err := d.ReadOptionTag()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	v, err := read(d)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
