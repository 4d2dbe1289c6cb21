package testdata

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/ayusman/catchball/internal/detector"
	"github.com/ayusman/catchball/internal/geometry"
)

//go:embed skeletons/*.json
var skeletonsFS embed.FS

// skeletonFile is the on-disk fixture format. A null joint is not detected.
type skeletonFile struct {
	Description string        `json:"description"`
	Joints      []*[2]float64 `json:"joints"`
	Root        *[3]float64   `json:"root"`
}

// LoadSkeleton loads a skeleton fixture by name (without extension).
func LoadSkeleton(name string) (detector.SkeletonFrame, error) {
	data, err := skeletonsFS.ReadFile("skeletons/" + name + ".json")
	if err != nil {
		return detector.SkeletonFrame{}, fmt.Errorf("load skeleton %s: %w", name, err)
	}

	var file skeletonFile
	if err := json.Unmarshal(data, &file); err != nil {
		return detector.SkeletonFrame{}, fmt.Errorf("decode skeleton %s: %w", name, err)
	}

	points := make([]geometry.Point, len(file.Joints))
	for i, j := range file.Joints {
		if j == nil {
			points[i] = geometry.Invalid()
			continue
		}
		points[i] = geometry.Point{X: j[0], Y: j[1]}
	}

	frame := detector.NewSkeletonFrame(points)
	if file.Root != nil {
		frame.Root = *file.Root
		frame.RootTracked = true
	}
	return frame, nil
}

// SkeletonNames lists the available skeleton fixtures.
func SkeletonNames() ([]string, error) {
	entries, err := skeletonsFS.ReadDir("skeletons")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), path.Ext(entry.Name())))
	}
	return names, nil
}
