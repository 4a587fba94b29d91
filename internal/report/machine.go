package report

import (
	"os"
	"runtime"

	"golang.org/x/sys/cpu"
)

// Machine describes the host the benchmark ran on.
type Machine struct {
	Hostname   string   `json:"hostname" yaml:"hostname"`
	GOOS       string   `json:"goos" yaml:"goos"`
	GOARCH     string   `json:"goarch" yaml:"goarch"`
	GoVersion  string   `json:"go_version" yaml:"go_version"`
	NumCPU     int      `json:"num_cpu" yaml:"num_cpu"`
	GOMAXPROCS int      `json:"gomaxprocs" yaml:"gomaxprocs"`
	WordSize   int      `json:"word_size" yaml:"word_size"`
	Features   []string `json:"cpu_features,omitempty" yaml:"cpu_features,omitempty"`
}

// DetectMachine collects the host description.
func DetectMachine() Machine {
	host, _ := os.Hostname()
	return Machine{
		Hostname:   host,
		GOOS:       runtime.GOOS,
		GOARCH:     runtime.GOARCH,
		GoVersion:  runtime.Version(),
		NumCPU:     runtime.NumCPU(),
		GOMAXPROCS: runtime.GOMAXPROCS(0),
		WordSize:   32 << (^uint(0) >> 63),
		Features:   cpuFeatures(),
	}
}

// cpuFeatures lists the vector and FMA extensions relevant to SpMV throughput.
func cpuFeatures() []string {
	var out []string
	add := func(ok bool, name string) {
		if ok {
			out = append(out, name)
		}
	}
	switch runtime.GOARCH {
	case "amd64", "386":
		add(cpu.X86.HasSSE41, "sse4.1")
		add(cpu.X86.HasAVX, "avx")
		add(cpu.X86.HasAVX2, "avx2")
		add(cpu.X86.HasFMA, "fma")
		add(cpu.X86.HasAVX512F, "avx512f")
	case "arm64":
		add(cpu.ARM64.HasASIMD, "asimd")
		add(cpu.ARM64.HasFPHP, "fphp")
		add(cpu.ARM64.HasSVE, "sve")
	}
	return out
}
