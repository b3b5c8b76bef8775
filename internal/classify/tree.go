package classify

import "luma/internal/features"

// TreeConfidence is the nominal confidence reported for every tree leaf. The
// tree carries no per-leaf probability, so this is a fixed placeholder.
const TreeConfidence = 0.6

// Tree is an offline-trained binary decision tree over min-max normalized
// features. Split values are in normalized units.
type Tree struct{}

func (Tree) Classify(v *features.Vector) Classification {
	var n features.Vector
	Normalize(v, &n)
	return Classification{Class: treeClass(&n), Confidence: TreeConfidence}
}

// Normalize maps raw features into [0,1] using the training ranges. Values
// outside the training range are not clipped.
func Normalize(v, dst *features.Vector) {
	for i := range v {
		span := featureMax[i] - featureMin[i]
		if span == 0 {
			dst[i] = 0
			continue
		}
		dst[i] = (v[i] - featureMin[i]) / span
	}
}

func treeClass(f *features.Vector) EventClass {
	if f[25] <= 0.156149 {
		if f[30] <= 0.571526 {
			if f[38] <= 0.516850 {
				if f[6] <= 0.462831 {
					return Normal
				}
				if f[57] <= 0.307517 {
					return Turn
				}
				if f[13] <= 0.887556 {
					return Brake
				}
				if f[39] <= 0.063562 {
					return Turn
				}
				if f[41] <= 0.811531 {
					return Normal
				}
				return Bump
			}
			if f[17] <= 0.145395 {
				if f[11] <= 0.917256 {
					return Turn
				}
				if f[35] <= 0.956297 {
					if f[43] <= 0.081519 {
						return Bump
					}
					return Brake
				}
				return Normal
			}
			if f[34] <= 0.112578 {
				return Brake
			}
			if f[52] <= 0.356674 {
				if f[13] <= 0.914238 {
					return Normal
				}
				return Bump
			}
			return Brake
		}
		if f[28] <= 0.092892 {
			return Normal
		}
		if f[22] <= 0.622492 {
			return Brake
		}
		return Normal
	}

	if f[19] <= 0.438382 {
		return Crash
	}
	if f[16] <= 0.153465 {
		if f[14] <= 0.381496 {
			if f[7] <= 0.062198 {
				return Normal
			}
			if f[25] <= 0.183816 {
				return Brake
			}
			return Bump
		}
		return Bump
	}
	if f[60] <= 0.340081 {
		return Bump
	}
	if f[13] <= 0.927018 {
		return Normal
	}
	return Bump
}

var featureMin = features.Vector{
	0.388800, 0.078398, 1.162842, -1.286865, 0.395264, 0.315918, -4.931273, -0.695874,
	-0.226845, 0.044658, 0.093994, -1.555176, 0.215088, -0.253174, -2.884106, -1.278120,
	-0.258309, 0.046912, -0.083496, -2.008789, 0.266357, -0.255615, -4.612069, -1.564704,
	0.977766, 0.087799, 1.215832, 0.000000, 0.438810, 0.980691, -4.766998, -0.684184,
	-27.296906, 6.637652, -0.885496, -415.725200, 26.900762, 16.167938,
	-7.377045, 7.841969, 13.877863, -200.274810, 34.717557, 20.015266,
	-6.505294, 4.543371, 9.786260, -173.755720, 20.167939, 10.167939,
	10.937498, 27.977523,
	2.511429, 17.747520, 4.603635,
	0.977055, 179.161528,
	0.105263, 0.129032, 0.140351,
	0.000000,
}

var featureMax = features.Vector{
	1.056658, 0.694109, 5.460205, 0.843262, 5.496338, 1.022705, 4.950679, 32.206904,
	0.301675, 0.366312, 2.062988, 0.172363, 2.530518, 0.291260, 4.109403, 20.249442,
	0.889212, 0.380533, 1.055908, 0.673584, 2.426025, 0.904785, 2.354949, 28.000906,
	1.104866, 0.690564, 5.595227, 0.878737, 5.397933, 1.058364, 5.360379, 34.753841,
	27.095693, 99.260149, 291.633580, -3.328244, 565.175580, 415.725200,
	7.260087, 38.147673, 161.068700, -14.244275, 284.198480, 200.274810,
	4.370698, 44.701517, 220.656500, -8.442748, 364.152690, 220.656500,
	65.670322, 429.472156,
	18.174698, 240.094993, 47.223768,
	1.612561, 10593.124585,
	0.517857, 0.625000, 0.696429,
	0.928571,
}
