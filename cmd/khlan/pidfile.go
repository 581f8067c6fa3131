package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func writePidFile(path string, pid int) error {
	return os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0644)
}

func readPidFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid PID in %s", path)
	}
	return pid, nil
}

// removeOwnPidFile deletes path only if it records pid. A PID file written
// for another process, such as a daemon already serving, is left alone.
func removeOwnPidFile(path string, pid int) error {
	got, err := readPidFile(path)
	if err != nil || got != pid {
		return nil
	}
	return os.Remove(path)
}
