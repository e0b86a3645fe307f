package mathx

// Vec3i is an integer 3-vector used for block and chunk coordinates.
type Vec3i struct{ X, Y, Z int }

func (v Vec3i) Add(o Vec3i) Vec3i { return Vec3i{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3i) Sub(o Vec3i) Vec3i { return Vec3i{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3i) Scale(s int) Vec3i { return Vec3i{v.X * s, v.Y * s, v.Z * s} }

func (v Vec3i) FloorDiv(s int) Vec3i {
	return Vec3i{FloorDiv(v.X, s), FloorDiv(v.Y, s), FloorDiv(v.Z, s)}
}

func (v Vec3i) CeilDiv(s int) Vec3i {
	return Vec3i{CeilDiv(v.X, s), CeilDiv(v.Y, s), CeilDiv(v.Z, s)}
}

func (v Vec3i) Min(o Vec3i) Vec3i {
	return Vec3i{MinInt(v.X, o.X), MinInt(v.Y, o.Y), MinInt(v.Z, o.Z)}
}

func (v Vec3i) Max(o Vec3i) Vec3i {
	return Vec3i{MaxInt(v.X, o.X), MaxInt(v.Y, o.Y), MaxInt(v.Z, o.Z)}
}
