package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// FallbackMemory is assumed when no limit can be read.
const FallbackMemory uint64 = 1 << 30

var (
	cgroupLimitFiles = []string{
		"/sys/fs/cgroup/memory.max",                   // v2
		"/sys/fs/cgroup/memory/memory.limit_in_bytes", // v1
	}
	memInfoFile = "/proc/meminfo"
)

// AvailableMemory returns the memory the process may use: the cgroup limit
// when one is set, otherwise MemAvailable from /proc/meminfo, otherwise
// FallbackMemory. When both are known the smaller wins.
func AvailableMemory() uint64 {
	var limit uint64
	for _, path := range cgroupLimitFiles {
		if data, err := os.ReadFile(path); err == nil {
			if v, ok := parseCgroupLimit(string(data)); ok {
				limit = v
				break
			}
		}
	}

	var available uint64
	if f, err := os.Open(memInfoFile); err == nil {
		available, _ = parseMemInfo(bufio.NewScanner(f))
		_ = f.Close()
	}

	switch {
	case limit > 0 && available > 0:
		return min(limit, available)
	case limit > 0:
		return limit
	case available > 0:
		return available
	}
	return FallbackMemory
}

// parseCgroupLimit reads a memory.max style value. "max" and the v1
// "unlimited" sentinel report no limit.
func parseCgroupLimit(s string) (uint64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "max" {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 10, 64)
	// cgroup v1 reports a page-rounded MaxInt64 when unlimited.
	if err != nil || v == 0 || v >= 1<<62 {
		return 0, false
	}
	return v, true
}

// parseMemInfo extracts MemAvailable in bytes.
func parseMemInfo(sc *bufio.Scanner) (uint64, bool) {
	for sc.Scan() {
		name, rest, ok := strings.Cut(sc.Text(), ":")
		if !ok || name != "MemAvailable" {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return 0, false
		}
		v, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return 0, false
		}
		if len(fields) > 1 && strings.EqualFold(fields[1], "kB") {
			v *= 1024
		}
		return v, true
	}
	return 0, false
}
