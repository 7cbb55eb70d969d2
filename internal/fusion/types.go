package fusion

import "fmt"

// Axis is one three-component sensor sample.
type Axis struct {
	X float32 `json:"x" yaml:"x"`
	Y float32 `json:"y" yaml:"y"`
	Z float32 `json:"z" yaml:"z"`
}

// Measurement is one synchronized accelerometer / gyroscope / magnetometer triple.
// A single Measurement is fed to every module of a run.
type Measurement struct {
	Acc  Axis `json:"acc" yaml:"acc"`
	Gyro Axis `json:"gyro" yaml:"gyro"`
	Mag  Axis `json:"mag" yaml:"mag"`
}

// Quaternion is an orientation estimate returned by a filter module.
type Quaternion struct {
	A float32 `json:"a"`
	B float32 `json:"b"`
	C float32 `json:"c"`
	D float32 `json:"d"`
}

// Components returns the quaternion as an array in ABI order.
func (q Quaternion) Components() [4]float32 {
	return [4]float32{q.A, q.B, q.C, q.D}
}

// Components returns the axis as an array in ABI order.
func (a Axis) Components() [3]float32 {
	return [3]float32{a.X, a.Y, a.Z}
}

// Values returns the nine measurement values in generation order:
// acc.xyz, gyro.xyz, mag.xyz.
func (m Measurement) Values() [9]float32 {
	return [9]float32{
		m.Acc.X, m.Acc.Y, m.Acc.Z,
		m.Gyro.X, m.Gyro.Y, m.Gyro.Z,
		m.Mag.X, m.Mag.Y, m.Mag.Z,
	}
}

func (a Axis) String() string {
	return fmt.Sprintf("(%s, %s, %s)", FormatFloat(a.X), FormatFloat(a.Y), FormatFloat(a.Z))
}

func (q Quaternion) String() string {
	return fmt.Sprintf("[%s, %s, %s, %s]", FormatFloat(q.A), FormatFloat(q.B), FormatFloat(q.C), FormatFloat(q.D))
}

func (m Measurement) String() string {
	return fmt.Sprintf("acc=%s gyro=%s mag=%s", m.Acc, m.Gyro, m.Mag)
}
