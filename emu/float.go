package emu

import (
	"math"
	"math/big"

	"github.com/x448/float16"
)

// Floating-point helpers. Explicit float32 conversions keep the compiler
// from fusing a multiply into a following add; opcodes that are fused in
// hardware call the fma helpers instead.

func f32bits(f float32) uint32     { return math.Float32bits(f) }
func f32frombits(b uint32) float32 { return math.Float32frombits(b) }
func f64bits(f float64) uint64     { return math.Float64bits(f) }
func f64frombits(b uint64) float64 { return math.Float64frombits(b) }

func f16ToF32(b uint16) float32 { return float16.Frombits(b).Float32() }
func f32ToF16(f float32) uint16 { return float16.Fromfloat32(f).Bits() }

// bf16ToF32 widens a bfloat16, which is the upper half of a float32.
func bf16ToF32(b uint16) float32 { return f32frombits(uint32(b) << 16) }

func isNaN32(f float32) bool { return f != f }

func mulF32(a, b float32) float32 { return float32(a * b) }

// fmaF32 computes a*b+c with a single rounding.
func fmaF32(a, b, c float32) float32 {
	r := math.FMA(float64(a), float64(b), float64(c))
	if r == 0 || math.IsInf(r, 0) || math.IsNaN(r) {
		// Zero is exact, and an infinite or NaN double result can only come
		// from infinite or NaN inputs.
		return float32(r)
	}

	// The double result may already be rounded; redo the sum exactly.
	prod := new(big.Float).SetPrec(128).SetFloat64(float64(a))
	prod.Mul(prod, new(big.Float).SetFloat64(float64(b)))
	sum := new(big.Float).SetPrec(1024)
	sum.Add(prod, new(big.Float).SetFloat64(float64(c)))

	f, _ := sum.Float32()
	return f
}

// fmaF16 computes a*b+c on half-precision inputs with a single rounding.
// The double-precision sum of three halves is exact whenever the result is
// finite in half precision.
func fmaF16(a, b, c uint16) uint16 {
	r := math.FMA(float64(f16ToF32(a)), float64(f16ToF32(b)), float64(f16ToF32(c)))
	return f64ToF16(r)
}

// f64ToF16 rounds a double to half precision.
func f64ToF16(f float64) uint16 {
	// Round to 24 bits first only when that cannot create a tie.
	f32 := float32(f)
	if float64(f32) == f || f32 == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return f32ToF16(f32)
	}

	// Inexact narrowing: nudge toward the true value so that a halfway
	// float32 cannot be mistaken for an exact tie at half precision.
	bits := f32bits(f32)
	if (float64(f32) < f) == (f32 > 0) {
		bits |= 1
	} else if bits&1 == 0 {
		bits--
		bits |= 1
	}
	return f32ToF16(f32frombits(bits))
}

func addF16(a, b uint16) uint16 { return f32ToF16(f16ToF32(a) + f16ToF32(b)) }
func subF16(a, b uint16) uint16 { return f32ToF16(f16ToF32(a) - f16ToF32(b)) }
func mulF16(a, b uint16) uint16 { return f32ToF16(mulF32(f16ToF32(a), f16ToF32(b))) }

// maxNumF32 returns the larger operand, ignoring a single NaN.
func maxNumF32(a, b float32) float32 {
	switch {
	case isNaN32(a):
		return b
	case isNaN32(b):
		return a
	}
	return float32(math.Max(float64(a), float64(b)))
}

// minNumF32 returns the smaller operand, ignoring a single NaN.
func minNumF32(a, b float32) float32 {
	switch {
	case isNaN32(a):
		return b
	case isNaN32(b):
		return a
	}
	return float32(math.Min(float64(a), float64(b)))
}

func maxNumF64(a, b float64) float64 {
	switch {
	case math.IsNaN(a):
		return b
	case math.IsNaN(b):
		return a
	}
	return math.Max(a, b)
}

func minNumF64(a, b float64) float64 {
	switch {
	case math.IsNaN(a):
		return b
	case math.IsNaN(b):
		return a
	}
	return math.Min(a, b)
}

func maxNumF16(a, b uint16) uint16 {
	return f32ToF16(maxNumF32(f16ToF32(a), f16ToF32(b)))
}

func minNumF16(a, b uint16) uint16 {
	return f32ToF16(minNumF32(f16ToF32(a), f16ToF32(b)))
}

// Saturating float-to-integer conversions. NaN converts to zero, values
// beyond the target range clamp to its bounds, and the rest truncate
// toward zero.

func floatToI32(f float64) int32 {
	switch {
	case math.IsNaN(f):
		return 0
	case f <= math.MinInt32:
		return math.MinInt32
	case f >= math.MaxInt32:
		return math.MaxInt32
	}
	return int32(f)
}

func floatToU32(f float64) uint32 {
	switch {
	case math.IsNaN(f), f <= 0:
		return 0
	case f >= math.MaxUint32:
		return math.MaxUint32
	}
	return uint32(f)
}

func floatToI16(f float64) int16 {
	switch {
	case math.IsNaN(f):
		return 0
	case f <= math.MinInt16:
		return math.MinInt16
	case f >= math.MaxInt16:
		return math.MaxInt16
	}
	return int16(f)
}

func floatToU16(f float64) uint16 {
	switch {
	case math.IsNaN(f), f <= 0:
		return 0
	case f >= math.MaxUint16:
		return math.MaxUint16
	}
	return uint16(f)
}

// largestBelowOne is the largest float32 smaller than 1.
var largestBelowOne = f32frombits(0x3F7FFFFF)

// fractF32 returns x - floor(x), kept strictly below 1.
func fractF32(x float32) float32 {
	if math.IsInf(float64(x), 0) {
		return float32(math.NaN())
	}
	r := float32(float64(x) - math.Floor(float64(x)))
	if r > largestBelowOne {
		return largestBelowOne
	}
	return r
}

// sign-bit masks used by the neg and abs source modifiers.
const (
	signBit16 = 1 << 15
	signBit32 = 1 << 31
	signBit64 = 1 << 63
)

// floatClass returns the v_cmp_class bit index of a value: 1 NaN, 2 -inf,
// 3 -normal, 4 -denormal, 5 -0, 6 +0, 7 +denormal, 8 +normal, 9 +inf.
func floatClass(isNaN, isInf, isZero, isDenorm, negative bool) uint {
	var idx uint
	switch {
	case isNaN:
		return 1
	case isInf:
		idx = 9
	case isZero:
		idx = 6
	case isDenorm:
		idx = 7
	default:
		idx = 8
	}
	if negative {
		// Mirror around the middle of the mask.
		idx = 11 - idx
	}
	return idx
}

func classF32(b uint32) uint {
	exp := (b >> 23) & 0xFF
	mant := b & 0x7FFFFF
	return floatClass(exp == 0xFF && mant != 0, exp == 0xFF && mant == 0,
		exp == 0 && mant == 0, exp == 0 && mant != 0, b>>31 == 1)
}

func classF16(b uint16) uint {
	exp := (b >> 10) & 0x1F
	mant := b & 0x3FF
	return floatClass(exp == 0x1F && mant != 0, exp == 0x1F && mant == 0,
		exp == 0 && mant == 0, exp == 0 && mant != 0, b>>15 == 1)
}

func classF64(b uint64) uint {
	exp := (b >> 52) & 0x7FF
	mant := b & (1<<52 - 1)
	return floatClass(exp == 0x7FF && mant != 0, exp == 0x7FF && mant == 0,
		exp == 0 && mant == 0, exp == 0 && mant != 0, b>>63 == 1)
}
