package scene

// Vec3 is a 3D vector.
type Vec3 struct {
	X, Y, Z float64
}

var (
	// Zero is the origin.
	Zero = Vec3{}
	// One is the identity scale.
	One = Vec3{X: 1, Y: 1, Z: 1}
)

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Mul returns the component-wise product of v and o.
func (v Vec3) Mul(o Vec3) Vec3 {
	return Vec3{X: v.X * o.X, Y: v.Y * o.Y, Z: v.Z * o.Z}
}

// Scale returns v * f.
func (v Vec3) Scale(f float64) Vec3 {
	return Vec3{X: v.X * f, Y: v.Y * f, Z: v.Z * f}
}
