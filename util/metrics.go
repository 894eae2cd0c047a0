package util

// MetricsBucketsMilliSeconds covers 1ms to 4s, the range of a verified
// batch or a store round trip.
var MetricsBucketsMilliSeconds = []float64{
	1e-3, 2e-3, 4e-3, 16e-3, 32e-3, 64e-3, 128e-3, 256e-3, 512e-3, 1024e-3, 2048e-3, 4096e-3,
}

// MetricsBucketsHeaderCount counts headers per batch, up to a few epochs.
var MetricsBucketsHeaderCount = []float64{
	1, 2, 4, 8, 16, 32, 64, 128, 256, 512, 1024, 2016, 4032, 8064,
}
