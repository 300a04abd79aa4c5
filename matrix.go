package dalgebra

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ============================================================
// PolyMatrix
// ============================================================

// PolyMatrix is a dense matrix with polynomial entries.
type PolyMatrix struct {
	rows, cols int
	data       [][]*Poly
}

func NewPolyMatrix(rows, cols int) *PolyMatrix {
	if rows < 0 || cols < 0 {
		panic("dalgebra: negative matrix dimension")
	}
	data := make([][]*Poly, rows)
	for i := range data {
		data[i] = make([]*Poly, cols)
		for j := range data[i] {
			data[i][j] = newPoly()
		}
	}
	return &PolyMatrix{rows: rows, cols: cols, data: data}
}

func (m *PolyMatrix) Rows() int { return m.rows }
func (m *PolyMatrix) Cols() int { return m.cols }

func (m *PolyMatrix) check(i, j int) {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic("dalgebra: matrix index out of range")
	}
}

func (m *PolyMatrix) Get(i, j int) *Poly {
	m.check(i, j)
	return m.data[i][j].clone()
}

func (m *PolyMatrix) Set(i, j int, p *Poly) {
	m.check(i, j)
	m.data[i][j] = p.clone()
}

func (m *PolyMatrix) clone() *PolyMatrix {
	c := NewPolyMatrix(m.rows, m.cols)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			c.data[i][j] = m.data[i][j].clone()
		}
	}
	return c
}

func (m *PolyMatrix) String() string {
	var b strings.Builder
	for i := 0; i < m.rows; i++ {
		b.WriteByte('[')
		for j := 0; j < m.cols; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(m.data[i][j].String())
		}
		b.WriteString("]\n")
	}
	return b.String()
}

// ============================================================
// Determinant
// ============================================================

// Det computes the determinant by fraction-free Bareiss elimination; every
// intermediate division is exact over Q[vars]. The empty matrix has
// determinant one.
func (m *PolyMatrix) Det() *Poly {
	if m.rows != m.cols {
		panic("dalgebra: determinant of non-square matrix")
	}
	n := m.rows
	if n == 0 {
		return N(1)
	}
	if n == 1 {
		return m.data[0][0].clone()
	}
	a := m.clone().data
	sign := 1
	prev := N(1)
	for k := 0; k < n-1; k++ {
		if a[k][k].IsZero() {
			swapped := false
			for r := k + 1; r < n; r++ {
				if !a[r][k].IsZero() {
					a[k], a[r] = a[r], a[k]
					sign = -sign
					swapped = true
					break
				}
			}
			if !swapped {
				return newPoly()
			}
		}
		for i := k + 1; i < n; i++ {
			for j := k + 1; j < n; j++ {
				num := a[k][k].Mul(a[i][j]).Sub(a[i][k].Mul(a[k][j]))
				q, ok := divExact(num, prev)
				if !ok {
					panic("dalgebra: inexact division in fraction-free elimination")
				}
				a[i][j] = q
			}
		}
		prev = a[k][k]
	}
	det := a[n-1][n-1]
	if sign < 0 {
		det = det.Neg()
	}
	return det
}

// ============================================================
// Sylvester matrix
// ============================================================

// SylvesterMatrix builds the Sylvester matrix of p and q with respect to v.
// Coefficients are polynomials in the remaining variables. With m = deg_v(p)
// and n = deg_v(q) the matrix is (m+n) x (m+n); when both degrees vanish it
// is empty.
func SylvesterMatrix(p, q *Poly, v string) *PolyMatrix {
	dp, dq := p.Degree(v), q.Degree(v)
	pc, qc := p.CoeffsIn(v), q.CoeffsIn(v)
	n := dp + dq
	m := NewPolyMatrix(n, n)
	for row := 0; row < dq; row++ {
		for k := 0; k <= dp; k++ {
			if c := pc[dp-k]; c != nil {
				m.data[row][row+k] = c.clone()
			}
		}
	}
	for row := 0; row < dp; row++ {
		for k := 0; k <= dq; k++ {
			if c := qc[dq-k]; c != nil {
				m.data[dq+row][row+k] = c.clone()
			}
		}
	}
	return m
}

// ============================================================
// Persistence
// ============================================================

// WriteMatrix dumps m in the sparse text format: a "rows,cols" header, then
// one "i,j;polynomial" line per nonzero entry in row-major order.
func WriteMatrix(w io.Writer, m *PolyMatrix) error {
	if _, err := fmt.Fprintf(w, "%d,%d\n", m.rows, m.cols); err != nil {
		return err
	}
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			if m.data[i][j].IsZero() {
				continue
			}
			if _, err := fmt.Fprintf(w, "%d,%d;%s\n", i, j, m.data[i][j]); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadMatrix parses the WriteMatrix format; absent entries are zero.
func ReadMatrix(r io.Reader) (*PolyMatrix, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("matrix: missing header")
	}
	rows, cols, err := parseIndexPair(sc.Text())
	if err != nil {
		return nil, fmt.Errorf("matrix: header: %w", err)
	}
	m := NewPolyMatrix(rows, cols)
	line := 1
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		pos, entry, ok := strings.Cut(text, ";")
		if !ok {
			return nil, fmt.Errorf("matrix: line %d: missing ';'", line)
		}
		i, j, err := parseIndexPair(pos)
		if err != nil {
			return nil, fmt.Errorf("matrix: line %d: %w", line, err)
		}
		if i < 0 || i >= rows || j < 0 || j >= cols {
			return nil, fmt.Errorf("matrix: line %d: entry (%d,%d) outside %dx%d", line, i, j, rows, cols)
		}
		p, err := ParsePoly(entry)
		if err != nil {
			return nil, fmt.Errorf("matrix: line %d: %w", line, err)
		}
		m.data[i][j] = p
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func parseIndexPair(s string) (int, int, error) {
	a, b, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return 0, 0, fmt.Errorf("want \"i,j\", got %q", s)
	}
	i, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return 0, 0, err
	}
	j, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return 0, 0, err
	}
	return i, j, nil
}

// WriteMatrixFile persists m at path, truncating any previous dump.
func WriteMatrixFile(path string, m *PolyMatrix) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteMatrix(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadMatrixFile loads a dump written by WriteMatrixFile.
func ReadMatrixFile(path string) (*PolyMatrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadMatrix(f)
}
