package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// uinput and evdev are linux only
var platforms = []platform{
	{arch: "amd64"},
	{arch: "arm64"},
	{arch: "arm", arm: "7"},
	{arch: "386"},
	{arch: "riscv64"},
}

type platform struct {
	arch string
	arm  string
}

func (p platform) String() string {
	if p.arm != "" {
		return fmt.Sprintf("linux-%s-v%s", p.arch, p.arm)
	}
	return fmt.Sprintf("linux-%s", p.arch)
}

func (p platform) env() []string {
	env := []string{"GOOS=linux", "GOARCH=" + p.arch, "CGO_ENABLED=0"}
	if p.arm != "" {
		env = append(env, "GOARM="+p.arm)
	}
	return env
}

// artifact is a result of building the daemon for one platform
type artifact struct {
	platform platform
	path     string
	output   string
	err      error
}

var (
	selection = flag.String("platforms", "all", "comma-separated platform list, see -list")
	list      = flag.Bool("list", false, "print available platforms and exit")
	version   = flag.String("version", "", "version stamped into binaries (default: git describe)")
	strip     = flag.Bool("strip", true, "omit symbol table and debug information")
	outDir    = flag.String("out", "./builds", "output directory")
)

const project = "./cmd/middleclick/"

func selectPlatforms(selection string) ([]platform, error) {
	if selection == "all" {
		return platforms, nil
	}

	var selected []platform
root:
	for _, name := range strings.Split(selection, ",") {
		for _, p := range platforms {
			if p.String() == strings.TrimSpace(name) {
				selected = append(selected, p)
				continue root
			}
		}
		return nil, fmt.Errorf("unknown platform: %s", name)
	}
	return selected, nil
}

// describe returns version of the working tree, "dev" when git is not available
func describe() string {
	out, err := exec.Command("git", "describe", "--tags", "--always", "--dirty").Output()
	if err != nil {
		return "dev"
	}
	return strings.TrimSpace(string(out))
}

func ldflags(version string, strip bool) string {
	flags := []string{fmt.Sprintf("-X main.version=%s", version)}
	if strip {
		flags = append(flags, "-s", "-w")
	}
	return strings.Join(flags, " ")
}

func build(p platform, version string) artifact {
	a := artifact{
		platform: p,
		path:     filepath.Join(*outDir, fmt.Sprintf("middleclick-%s-%s", version, p)),
	}

	cmd := exec.Command("go", "build", "-trimpath", "-ldflags", ldflags(version, *strip), "-o", a.path, project)
	cmd.Env = append(os.Environ(), p.env()...)

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	a.err = cmd.Run()
	a.output = output.String()
	return a
}

func checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	_, err = io.Copy(h, f)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// writeChecksums creates SHA256SUMS next to binaries, in sha256sum(1) format
func writeChecksums(artifacts []artifact) error {
	var lines []string
	for _, a := range artifacts {
		sum, err := checksum(a.path)
		if err != nil {
			return fmt.Errorf("checksum of %s failed: %w", a.path, err)
		}
		lines = append(lines, fmt.Sprintf("%s  %s", sum, filepath.Base(a.path)))
	}
	sort.Strings(lines)
	data := []byte(strings.Join(lines, "\n") + "\n")
	return os.WriteFile(filepath.Join(*outDir, "SHA256SUMS"), data, 0o644)
}

func main() {
	flag.Parse()
	log.SetFlags(log.Ltime)

	if *list {
		for _, p := range platforms {
			fmt.Println(p)
		}
		return
	}

	selected, err := selectPlatforms(*selection)
	if err != nil {
		log.Fatal(err)
	}
	if *version == "" {
		*version = describe()
	}
	err = os.MkdirAll(*outDir, 0o755)
	if err != nil {
		log.Fatal(err)
	}

	log.Printf("building middleclick %s for %d platforms", *version, len(selected))

	var artifacts = make([]artifact, len(selected))
	wg := sync.WaitGroup{}
	for i, p := range selected {
		wg.Add(1)
		go func(i int, p platform) {
			defer wg.Done()
			artifacts[i] = build(p, *version)
		}(i, p)
	}
	wg.Wait()

	var built []artifact
	for _, a := range artifacts {
		if a.err != nil {
			log.Printf("%s failed: %v", a.platform, a.err)
			fmt.Print(a.output)
			continue
		}
		log.Printf("%s: %s", a.platform, a.path)
		built = append(built, a)
	}

	if len(built) > 0 {
		err = writeChecksums(built)
		if err != nil {
			log.Printf("writing checksums failed: %v", err)
			os.Exit(1)
		}
	}
	if len(built) != len(artifacts) {
		os.Exit(1)
	}
}
