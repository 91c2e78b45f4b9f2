package types

// A transformation split into translation, rotation and scale so that
// motion steps can be interpolated without shearing.
type DecomposedTransform struct {
	T Vec3
	R Quat
	S Vec3
}

// Decompose an affine matrix without shear. A negative determinant is
// folded into the sign of the X scale.
func Decompose(m Mat4) DecomposedTransform {
	cols := [3]Vec3{
		{m[0], m[1], m[2]},
		{m[4], m[5], m[6]},
		{m[8], m[9], m[10]},
	}
	scale := Vec3{cols[0].Len(), cols[1].Len(), cols[2].Len()}
	if m.Det() < 0 {
		scale[0] = -scale[0]
	}

	rot := Ident4()
	for c := 0; c < 3; c++ {
		if scale[c] == 0 {
			continue
		}
		axis := cols[c].Mul(1 / scale[c])
		rot[c*4+0], rot[c*4+1], rot[c*4+2] = axis[0], axis[1], axis[2]
	}

	return DecomposedTransform{
		T: Vec3{m[12], m[13], m[14]},
		R: QuatFromMat4(rot).Normalize(),
		S: scale,
	}
}

// Compose the transform back into a matrix: M = T * R * S.
func (dt DecomposedTransform) Mat4() Mat4 {
	return Translate4(dt.T).Mul4(dt.R.Mat4()).Mul4(Scale4(dt.S))
}

// Interpolate between two decomposed transforms.
func (dt DecomposedTransform) Interpolate(dt2 DecomposedTransform, t float32) DecomposedTransform {
	return DecomposedTransform{
		T: dt.T.Lerp(dt2.T, t),
		R: dt.R.Slerp(dt2.R, t),
		S: dt.S.Lerp(dt2.S, t),
	}
}

// Evaluate a sequence of equally spaced motion steps at time in [0, 1].
// It returns the forward matrix and its inverse.
func MotionTransform(steps []DecomposedTransform, time float32) (Mat4, Mat4) {
	var dt DecomposedTransform
	switch len(steps) {
	case 0:
		return Ident4(), Ident4()
	case 1:
		dt = steps[0]
	default:
		maxStep := len(steps) - 1
		if time <= 0 {
			dt = steps[0]
		} else if time >= 1 {
			dt = steps[maxStep]
		} else {
			fstep := time * float32(maxStep)
			step := int(fstep)
			if step > maxStep-1 {
				step = maxStep - 1
			}
			dt = steps[step].Interpolate(steps[step+1], fstep-float32(step))
		}
	}

	m := dt.Mat4()
	return m, m.Inv()
}
