package sealitebench

// benchmarksConfig holds all parameters for each benchmark.
type benchmarksConfig struct {
	benchmarkSimpleConfig
	benchmarkLargeConfig
	benchmarkManyConfig
	benchmarkReopenConfig
}

func getDefaultConfig() benchmarksConfig {
	return benchmarksConfig{
		benchmarkSimpleConfig: benchmarkSimpleConfig{
			insertXUsers:     100_000,
			insertGoroutines: 10,
		},

		benchmarkLargeConfig: benchmarkLargeConfig{
			insertXBlobs:     5_000,
			insertYBytes:     10_000,
			insertGoroutines: 10,
		},

		benchmarkManyConfig: benchmarkManyConfig{
			insertXUsers:     1_000,
			queryUsersYTimes: 1_000,
			queryGoroutines:  10,
		},

		benchmarkReopenConfig: benchmarkReopenConfig{
			reopenXTimes:    50,
			poolGoroutines:  4,
			poolMaxHandles:  4,
			poolIdleHandles: 2,
		},
	}
}

// getQuickConfig is a small run for smoke testing a build.
func getQuickConfig() benchmarksConfig {
	return benchmarksConfig{
		benchmarkSimpleConfig: benchmarkSimpleConfig{
			insertXUsers:     200,
			insertGoroutines: 4,
		},

		benchmarkLargeConfig: benchmarkLargeConfig{
			insertXBlobs:     20,
			insertYBytes:     4_096,
			insertGoroutines: 4,
		},

		benchmarkManyConfig: benchmarkManyConfig{
			insertXUsers:     50,
			queryUsersYTimes: 20,
			queryGoroutines:  4,
		},

		benchmarkReopenConfig: benchmarkReopenConfig{
			reopenXTimes:    3,
			poolGoroutines:  2,
			poolMaxHandles:  2,
			poolIdleHandles: 1,
		},
	}
}
