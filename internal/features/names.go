package features

// Count is the fixed feature vector length.
const Count = 61

// Vector is one window's raw-unit features. Index meaning is fixed; see Names.
type Vector [Count]float64

// Indices used by the classifiers.
const (
	AccelZStd   = 17
	AccelMagMax = 26
	GyroMagMax  = 51
	JerkMean    = 52
	JerkMax     = 53
)

// Names maps each index to a stable feature name.
var Names = [Count]string{
	"accel_x_mean", "accel_x_std", "accel_x_max", "accel_x_min",
	"accel_x_range", "accel_x_median", "accel_x_skew", "accel_x_kurtosis",
	"accel_y_mean", "accel_y_std", "accel_y_max", "accel_y_min",
	"accel_y_range", "accel_y_median", "accel_y_skew", "accel_y_kurtosis",
	"accel_z_mean", "accel_z_std", "accel_z_max", "accel_z_min",
	"accel_z_range", "accel_z_median", "accel_z_skew", "accel_z_kurtosis",
	"accel_mag_mean", "accel_mag_std", "accel_mag_max", "accel_mag_min",
	"accel_mag_range", "accel_mag_median", "accel_mag_skew", "accel_mag_kurtosis",
	"gyro_x_mean", "gyro_x_std", "gyro_x_max", "gyro_x_min", "gyro_x_range", "gyro_x_abs_max",
	"gyro_y_mean", "gyro_y_std", "gyro_y_max", "gyro_y_min", "gyro_y_range", "gyro_y_abs_max",
	"gyro_z_mean", "gyro_z_std", "gyro_z_max", "gyro_z_min", "gyro_z_range", "gyro_z_abs_max",
	"gyro_mag_mean", "gyro_mag_max",
	"jerk_mean", "jerk_max", "jerk_std",
	"accel_energy", "gyro_energy",
	"gyro_x_zcr", "gyro_y_zcr", "gyro_z_zcr",
	"peak_position",
}

// Index returns the position of a named feature, or -1.
func Index(name string) int {
	for i, n := range Names {
		if n == name {
			return i
		}
	}
	return -1
}
