package backend

import (
	"bufio"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/b0bbywan/go-mpris-bridge/config"
	"github.com/b0bbywan/go-mpris-bridge/logger"
)

const (
	unknown       = "unknown"
	osReleaseFile = "/etc/os-release"
)

var osVersion string

type ServerDeviceInfo struct {
	Hostname      string `json:"hostname"`
	OSPlatform    string `json:"os_platform"`
	OSVersion     string `json:"os_version"`
	BridgeSW      string `json:"bridge_sw"`
	BridgeVersion string `json:"bridge_version"`
	Players       int    `json:"players"`
	Zeroconf      bool   `json:"zeroconf"`
}

func init() {
	osVersion = readOSRelease()
}

func parseKeyValue(r io.Reader) (map[string]string, error) {
	out := make(map[string]string)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		out[key] = strings.Trim(value, `"`)
	}

	return out, scanner.Err()
}

func readOSRelease() string {
	file, err := os.Open(osReleaseFile)
	if err != nil {
		return unknown
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Warn("[backend] failed to close %s: %v", osReleaseFile, err)
		}
	}()

	content, err := parseKeyValue(file)
	if err != nil {
		logger.Debug("[backend] failed to parse %s: %v", osReleaseFile, err)
	}

	switch {
	case content["PRETTY_NAME"] != "":
		return content["PRETTY_NAME"]
	case content["NAME"] != "":
		return content["NAME"]
	default:
		return unknown
	}
}

// GetServerDeviceInfo describes this bridge instance, served on the art port.
func (b *Backend) GetServerDeviceInfo() (ServerDeviceInfo, error) {
	hostname, err := os.Hostname()
	if err != nil {
		logger.Debug("[backend] failed to get hostname: %v", err)
		hostname = unknown
	}

	return ServerDeviceInfo{
		Hostname:      hostname,
		OSPlatform:    runtime.GOOS + "/" + runtime.GOARCH,
		OSVersion:     osVersion,
		BridgeSW:      config.AppName,
		BridgeVersion: config.AppVersion,
		Players:       len(b.MPRIS.List()),
		Zeroconf:      b.Zeroconf != nil,
	}, nil
}
