package config_test

import (
	"context"
	"os"
	"testing"

	"github.com/caliban/dropzone/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.Platform, convey.ShouldEqual, "steam")
				convey.So(cfg.MaxRequests, convey.ShouldEqual, 10)
				convey.So(cfg.WindowSeconds, convey.ShouldEqual, 60)
				convey.So(cfg.MinSpacingMS, convey.ShouldEqual, 500)
				convey.So(cfg.MatchTTLHours, convey.ShouldEqual, 168)
				convey.So(cfg.PlayerTTLMinutes, convey.ShouldEqual, 5)
				convey.So(cfg.SampleRate, convey.ShouldEqual, 0.10)
				convey.So(cfg.HotZoneRadius, convey.ShouldEqual, 500)
				convey.So(cfg.HotZoneTopK, convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("DROPZONE_ADDR", ":8080")
			_ = os.Setenv("DROPZONE_API_KEY", "test-key")
			_ = os.Setenv("DROPZONE_MAX_REQUESTS", "20")
			_ = os.Setenv("DROPZONE_MIN_SPACING_MS", "250")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.APIKey, convey.ShouldEqual, "test-key")
				convey.So(cfg.MaxRequests, convey.ShouldEqual, 20)
				convey.So(cfg.MinSpacingMS, convey.ShouldEqual, 250)
				convey.So(cfg.WindowSeconds, convey.ShouldEqual, 60) // untouched default
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			yamlContent := `
addr: ":7070"
api_key: "file-key"
max_requests: 8
cache_dir: "/tmp/dropzone-test-cache"
hot_zone_min_players: 4
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("DROPZONE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.APIKey, convey.ShouldEqual, "file-key")
				convey.So(cfg.MaxRequests, convey.ShouldEqual, 8)
				convey.So(cfg.CacheDir, convey.ShouldEqual, "/tmp/dropzone-test-cache")
				convey.So(cfg.HotZoneMinPlayers, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":7070"
max_requests: 8
platform: "kakao"
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("DROPZONE_CONFIG", tmpFile)
			_ = os.Setenv("DROPZONE_ADDR", ":8080") // This should override the file
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")     // Overridden by env
				convey.So(cfg.MaxRequests, convey.ShouldEqual, 8)    // From file
				convey.So(cfg.Platform, convey.ShouldEqual, "kakao") // From file
			})
		})

		convey.Convey("When loading config with an invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("DROPZONE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a non-existent file", func() {
			_ = os.Setenv("DROPZONE_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an empty addr", func() {
			_ = os.Setenv("DROPZONE_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an out-of-range sample rate", func() {
			_ = os.Setenv("DROPZONE_SAMPLE_RATE", "1.5")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "sample_rate")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with zero max_requests", func() {
			_ = os.Setenv("DROPZONE_MAX_REQUESTS", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "max_requests")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"DROPZONE_CONFIG",
		"DROPZONE_ADDR",
		"DROPZONE_API_KEY",
		"DROPZONE_PLATFORM",
		"DROPZONE_MAX_REQUESTS",
		"DROPZONE_MIN_SPACING_MS",
		"DROPZONE_SAMPLE_RATE",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "dropzone-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
