package geom

import (
	"github.com/chewxy/math32"

	"github.com/achilleasa/raykernel/types"
)

// Transfer the ray differentials of the incoming ray to the hit point at
// distance t on a surface with normal ng.
func DifferentialTransfer(dP Differential3, d types.Vec3, dD Differential3, ng types.Vec3, t float32) Differential3 {
	dn := d.Dot(ng)
	if dn == 0 {
		return Differential3{}
	}
	tmp := d.Mul(1 / dn)
	tmpx := dP.Dx.Add(dD.Dx.Mul(t))
	tmpy := dP.Dy.Add(dD.Dy.Mul(t))

	return Differential3{
		Dx: tmpx.Sub(tmp.Mul(tmpx.Dot(ng))),
		Dy: tmpy.Sub(tmp.Mul(tmpy.Dot(ng))),
	}
}

// Get the differentials of the incoming direction I = -D.
func DifferentialIncoming(dD Differential3) Differential3 {
	return Differential3{Dx: dD.Dx.Neg(), Dy: dD.Dy.Neg()}
}

// Derive the screen space derivatives of the surface parameters from the
// position derivatives. The 2x2 system is solved on the projection plane
// that is most stable for the normal ng.
func DifferentialDuDv(dPdu, dPdv types.Vec3, dP Differential3, ng types.Vec3) (du, dv Differential) {
	xn := math32.Abs(ng[0])
	yn := math32.Abs(ng[1])
	zn := math32.Abs(ng[2])

	if zn < xn || zn < yn {
		if yn < xn || yn < zn {
			dPdu[0] = dPdu[1]
			dPdv[0] = dPdv[1]
			dP.Dx[0] = dP.Dx[1]
			dP.Dy[0] = dP.Dy[1]
		}

		dPdu[1] = dPdu[2]
		dPdv[1] = dPdv[2]
		dP.Dx[1] = dP.Dx[2]
		dP.Dy[1] = dP.Dy[2]
	}

	// Cramer's rule:
	//   dP.dx = dPdu * dudx + dPdv * dvdx
	//   dP.dy = dPdu * dudy + dPdv * dvdy
	det := dPdu[0]*dPdv[1] - dPdv[0]*dPdu[1]
	if det != 0 {
		det = 1 / det
	}

	du.Dx = (dP.Dx[0]*dPdv[1] - dP.Dx[1]*dPdv[0]) * det
	dv.Dx = (dP.Dx[1]*dPdu[0] - dP.Dx[0]*dPdu[1]) * det
	du.Dy = (dP.Dy[0]*dPdv[1] - dP.Dy[1]*dPdv[0]) * det
	dv.Dy = (dP.Dy[1]*dPdu[0] - dP.Dy[0]*dPdu[1]) * det
	return du, dv
}
