//go:build linux

package collector

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// CPUCounters returns the cumulative counters keyed by "cpu" (aggregate) and
// "cpu0".."cpuN".
func (h *Host) CPUCounters(ctx context.Context) (map[string]CPURaw, error) {
	stats, err := parseProcStat(h.procPath("stat"))
	if err != nil {
		return nil, fmt.Errorf("parsing /proc/stat: %w", err)
	}
	return stats, nil
}

func parseProcStat(path string) (map[string]CPURaw, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return parseProcStatFrom(f)
}

func parseProcStatFrom(r io.Reader) (map[string]CPURaw, error) {
	result := make(map[string]CPURaw)
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "cpu") {
			break
		}

		raw, err := parseCPULine(line)
		if err != nil {
			continue
		}

		fields := strings.Fields(line)
		result[fields[0]] = raw
	}

	return result, scanner.Err()
}

func parseCPULine(line string) (CPURaw, error) {
	fields := strings.Fields(line)
	if len(fields) < 11 {
		return CPURaw{}, fmt.Errorf("insufficient fields: %d", len(fields))
	}

	parse := makeUintParser(fields, "/proc/stat")

	return CPURaw{
		User:      parse(1),
		Nice:      parse(2),
		System:    parse(3),
		Idle:      parse(4),
		IOWait:    parse(5),
		IRQ:       parse(6),
		SoftIRQ:   parse(7),
		Steal:     parse(8),
		Guest:     parse(9),
		GuestNice: parse(10),
	}, nil
}
