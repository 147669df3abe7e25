package pyeval

import "math"

// MaxSequenceLen bounds the length of a string, bytes, list or tuple built
// by one operation, and the width or precision of a format field. Larger
// results raise MemoryError before anything is allocated.
const MaxSequenceLen = 1 << 24

// checkLen raises MemoryError when n elements exceed MaxSequenceLen. A
// negative n means the size computation overflowed.
func checkLen(n int64) error {
	if n < 0 || n > MaxSequenceLen {
		return newException("MemoryError", "result exceeds %d elements", MaxSequenceLen)
	}
	return nil
}

// productLen returns size*n, or -1 when it exceeds MaxSequenceLen.
func productLen(size, n int64) int64 {
	if n <= 0 || size == 0 {
		return 0
	}
	if size > MaxSequenceLen/n {
		return -1
	}
	return size * n
}

// charge adds n steps, one per 1024 elements copied, to the step budget.
func (in *Interp) charge(n int64) error {
	in.steps += int(n / 1024)
	return in.step()
}

func seqLen(v Value) (int64, bool) {
	switch x := v.(type) {
	case Str:
		return int64(len(x)), true
	case Bytes:
		return int64(len(x)), true
	case Tuple:
		return int64(len(x)), true
	case *List:
		return int64(len(x.Items)), true
	}
	return 0, false
}

// Integers are 64-bit. Results that do not fit raise OverflowError instead
// of wrapping.

func errOverflow() error {
	return newException("OverflowError", "integer result does not fit in 64 bits")
}

func addInt(a, b int64) (Value, error) {
	r := a + b
	if (a^r)&(b^r) < 0 {
		return nil, errOverflow()
	}
	return Int(r), nil
}

func subInt(a, b int64) (Value, error) {
	r := a - b
	if (a^b)&(a^r) < 0 {
		return nil, errOverflow()
	}
	return Int(r), nil
}

func mulInt(a, b int64) (Value, error) {
	if a == 0 || b == 0 {
		return Int(0), nil
	}
	r := a * b
	if r/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return nil, errOverflow()
	}
	return Int(r), nil
}

// powInt computes a**n for n >= 0 by squaring.
func powInt(a, n int64) (Value, error) {
	switch a {
	case 0:
		if n == 0 {
			return Int(1), nil
		}
		return Int(0), nil
	case 1:
		return Int(1), nil
	case -1:
		if n%2 == 0 {
			return Int(1), nil
		}
		return Int(-1), nil
	}
	if n >= 64 {
		return nil, errOverflow()
	}
	result, base := int64(1), a
	for n > 0 {
		if n&1 == 1 {
			r, err := mulInt(result, base)
			if err != nil {
				return nil, err
			}
			result = int64(r.(Int))
		}
		n >>= 1
		if n > 0 {
			b, err := mulInt(base, base)
			if err != nil {
				return nil, err
			}
			base = int64(b.(Int))
		}
	}
	return Int(result), nil
}

func shlInt(a, n int64) (Value, error) {
	if a == 0 {
		return Int(0), nil
	}
	if n >= 63 || (a<<uint(n))>>uint(n) != a {
		return nil, errOverflow()
	}
	return Int(a << uint(n)), nil
}

// floatToInt truncates f toward zero.
func floatToInt(f float64) (Value, error) {
	switch {
	case math.IsNaN(f):
		return nil, newException("ValueError", "cannot convert float NaN to integer")
	case math.IsInf(f, 0):
		return nil, newException("OverflowError", "cannot convert float infinity to integer")
	case f >= math.MaxInt64 || f < math.MinInt64:
		return nil, errOverflow()
	}
	return Int(int64(f)), nil
}
