package scene

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/siliconforge/gdstack/internal/extrude"
	"github.com/siliconforge/gdstack/pkg/pdk"
)

// OBJWriter streams meshes into a Wavefront OBJ file with a matching
// MTL material library. Each layer becomes one object "L<name>" with
// material "Mat_<name>".
type OBJWriter struct {
	obj     *bufio.Writer
	mtl     io.Writer
	closers []io.Closer

	vertBase int
	current  string         // layer of the open object block
	mats     []pdk.LayerSpec // material emit order
	seen     map[string]bool
}

// NewOBJWriter writes OBJ data to obj and materials to mtl. mtlName
// is the library file name referenced from the OBJ header.
func NewOBJWriter(obj, mtl io.Writer, mtlName string) *OBJWriter {
	w := &OBJWriter{
		obj:  bufio.NewWriter(obj),
		mtl:  mtl,
		seen: make(map[string]bool),
	}
	fmt.Fprintf(w.obj, "mtllib %s\n", mtlName)
	return w
}

// CreateOBJ opens path and the sibling .mtl file for writing. The
// returned writer owns both files and closes them on Close.
func CreateOBJ(path string) (*OBJWriter, error) {
	mtlPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".mtl"

	objFile, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	mtlFile, err := os.Create(mtlPath)
	if err != nil {
		objFile.Close()
		return nil, err
	}

	w := NewOBJWriter(objFile, mtlFile, filepath.Base(mtlPath))
	w.closers = []io.Closer{objFile, mtlFile}
	return w, nil
}

// Add writes one mesh. Meshes of the same layer merge into one OBJ
// object as long as they arrive consecutively.
func (w *OBJWriter) Add(m *extrude.Mesh) error {
	if m.Layer.Name != w.current {
		w.current = m.Layer.Name
		fmt.Fprintf(w.obj, "o L%s\n", m.Layer.Name)
		fmt.Fprintf(w.obj, "usemtl Mat_%s\n", m.Layer.Name)
		if !w.seen[m.Layer.Name] {
			w.seen[m.Layer.Name] = true
			w.mats = append(w.mats, m.Layer)
		}
	}

	for _, v := range m.Vertices {
		fmt.Fprintf(w.obj, "v %g %g %g\n", v.Position.X, v.Position.Y, v.Position.Z)
	}
	for _, v := range m.Vertices {
		fmt.Fprintf(w.obj, "vn %g %g %g\n", v.Normal.X, v.Normal.Y, v.Normal.Z)
	}

	for i := 0; i+2 < len(m.Indices); i += 3 {
		a := w.vertBase + int(m.Indices[i]) + 1
		b := w.vertBase + int(m.Indices[i+1]) + 1
		c := w.vertBase + int(m.Indices[i+2]) + 1
		fmt.Fprintf(w.obj, "f %d//%d %d//%d %d//%d\n", a, a, b, b, c, c)
	}
	w.vertBase += len(m.Vertices)

	return w.obj.Flush()
}

// Close flushes the OBJ stream, writes the material library, and
// closes any files the writer owns.
func (w *OBJWriter) Close() error {
	err := w.obj.Flush()

	for _, spec := range w.mats {
		writeMaterial(w.mtl, spec)
	}

	for _, c := range w.closers {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// writeMaterial emits one MTL entry. Metal, via, and contact layers
// get a metallic finish; everything else stays mostly diffuse. Pm and
// Pr are the PBR extension keywords.
func writeMaterial(mtl io.Writer, spec pdk.LayerSpec) {
	metallic, roughness := 0.1, 0.5
	if strings.Contains(spec.Name, "Metal") ||
		strings.Contains(spec.Name, "Via") ||
		strings.Contains(spec.Name, "Cont") {
		metallic = 0.8
	}
	if strings.Contains(spec.Name, "Metal") {
		roughness = 0.3
	}

	c := spec.Color
	fmt.Fprintf(mtl, "newmtl Mat_%s\n", spec.Name)
	fmt.Fprintf(mtl, "Kd %g %g %g\n", c[0], c[1], c[2])
	fmt.Fprintf(mtl, "Ks %g %g %g\n", metallic, metallic, metallic)
	fmt.Fprintf(mtl, "d %g\n", c[3])
	fmt.Fprintf(mtl, "Pm %g\n", metallic)
	fmt.Fprintf(mtl, "Pr %g\n", roughness)
	fmt.Fprintf(mtl, "illum 2\n\n")
}
