package naive

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// plyProperty is one "property <type> <name>" header line for the vertex
// element. 3DGS splat files carry no list properties, only scalars.
type plyProperty struct {
	name string
	size int // bytes, for binary_little_endian
}

// loadSplatAsset decodes a 3D Gaussian Splatting PLY file: the standard
// vertex properties x,y,z, scale_0..2, rot_0..3, opacity, f_dc_0..2, with
// load-time activations (exp on scale, sigmoid on opacity, SH DC to color).
func loadSplatAsset(path string) (SplatAsset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SplatAsset{}, err
	}

	header, body, err := splitPlyHeader(raw)
	if err != nil {
		return SplatAsset{}, err
	}

	format, count, props, err := parsePlyHeader(header)
	if err != nil {
		return SplatAsset{}, err
	}

	var rows []map[string]float32
	switch format {
	case "ascii":
		rows, err = parsePlyAsciiBody(body, count, props)
	case "binary_little_endian":
		rows, err = parsePlyBinaryBody(body, count, props)
	default:
		return SplatAsset{}, fmt.Errorf("unsupported ply format %q", format)
	}
	if err != nil {
		return SplatAsset{}, err
	}

	asset := SplatAsset{
		Path:      path,
		Positions: make([]mgl32.Vec3, len(rows)),
		Scales:    make([]mgl32.Vec3, len(rows)),
		Rotations: make([]mgl32.Quat, len(rows)),
		Opacity:   make([]float32, len(rows)),
		Color:     make([][3]float32, len(rows)),
	}
	for i, r := range rows {
		asset.Positions[i] = mgl32.Vec3{r["x"], r["y"], r["z"]}
		asset.Scales[i] = mgl32.Vec3{
			splatExp(r["scale_0"]), splatExp(r["scale_1"]), splatExp(r["scale_2"]),
		}
		asset.Rotations[i] = mgl32.Quat{
			W: r["rot_0"],
			V: mgl32.Vec3{r["rot_1"], r["rot_2"], r["rot_3"]},
		}
		asset.Opacity[i] = splatSigmoid(r["opacity"])
		asset.Color[i] = [3]float32{
			splatShDcToColor(r["f_dc_0"]),
			splatShDcToColor(r["f_dc_1"]),
			splatShDcToColor(r["f_dc_2"]),
		}
	}
	return asset, nil
}

func splatExp(x float32) float32 { return float32(math.Exp(float64(x))) }

func splatSigmoid(x float32) float32 { return float32(1 / (1 + math.Exp(-float64(x)))) }

func splatShDcToColor(c float32) float32 {
	v := c*0.28209479 + 0.5
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func splitPlyHeader(raw []byte) (header []string, body []byte, err error) {
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var consumed int
	for scanner.Scan() {
		line := scanner.Text()
		consumed += len(scanner.Bytes()) + 1
		header = append(header, line)
		if strings.TrimSpace(line) == "end_header" {
			return header, raw[consumed:], nil
		}
	}
	return nil, nil, fmt.Errorf("ply: missing end_header")
}

func parsePlyHeader(header []string) (format string, count int, props []plyProperty, err error) {
	if len(header) == 0 || strings.TrimSpace(header[0]) != "ply" {
		return "", 0, nil, fmt.Errorf("ply: not a ply file")
	}
	inVertex := false
	for _, line := range header[1:] {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "format":
			if len(fields) >= 2 {
				format = fields[1]
			}
		case "element":
			inVertex = len(fields) >= 2 && fields[1] == "vertex"
			if inVertex && len(fields) >= 3 {
				count, err = strconv.Atoi(fields[2])
				if err != nil {
					return "", 0, nil, fmt.Errorf("ply: bad vertex count: %w", err)
				}
			}
		case "property":
			if inVertex && len(fields) >= 3 {
				props = append(props, plyProperty{name: fields[len(fields)-1], size: plyTypeSize(fields[1])})
			}
		}
	}
	if format == "" {
		return "", 0, nil, fmt.Errorf("ply: missing format")
	}
	return format, count, props, nil
}

func plyTypeSize(t string) int {
	switch t {
	case "char", "uchar", "int8", "uint8":
		return 1
	case "short", "ushort", "int16", "uint16":
		return 2
	case "int", "uint", "int32", "uint32", "float", "float32":
		return 4
	case "double", "float64", "int64", "uint64":
		return 8
	default:
		return 4
	}
}

func parsePlyAsciiBody(body []byte, count int, props []plyProperty) ([]map[string]float32, error) {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	rows := make([]map[string]float32, 0, count)
	for len(rows) < count && scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < len(props) {
			return nil, fmt.Errorf("ply: short vertex row")
		}
		row := make(map[string]float32, len(props))
		for i, p := range props {
			v, err := strconv.ParseFloat(fields[i], 32)
			if err != nil {
				return nil, fmt.Errorf("ply: bad value for %s: %w", p.name, err)
			}
			row[p.name] = float32(v)
		}
		rows = append(rows, row)
	}
	if len(rows) != count {
		return nil, fmt.Errorf("ply: expected %d vertices, got %d", count, len(rows))
	}
	return rows, nil
}

func parsePlyBinaryBody(body []byte, count int, props []plyProperty) ([]map[string]float32, error) {
	rows := make([]map[string]float32, 0, count)
	off := 0
	for i := 0; i < count; i++ {
		row := make(map[string]float32, len(props))
		for _, p := range props {
			if off+p.size > len(body) {
				return nil, fmt.Errorf("ply: truncated binary body at vertex %d", i)
			}
			switch p.size {
			case 4:
				bits := binary.LittleEndian.Uint32(body[off : off+4])
				row[p.name] = math.Float32frombits(bits)
			case 8:
				bits := binary.LittleEndian.Uint64(body[off : off+8])
				row[p.name] = float32(math.Float64frombits(bits))
			case 2:
				row[p.name] = float32(binary.LittleEndian.Uint16(body[off : off+2]))
			default:
				row[p.name] = float32(body[off])
			}
			off += p.size
		}
		rows = append(rows, row)
	}
	return rows, nil
}
