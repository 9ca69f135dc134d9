package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Document abstrae un documento JSON que se lee y se reescribe entero.
type Document interface {
	// Load devuelve el contenido actual, o nil si el documento no existe todavía.
	Load(ctx context.Context) ([]byte, error)
	// Save reemplaza el contenido completo.
	Save(ctx context.Context, data []byte) error
}

// ErrStoreIO envuelve fallos de lectura o escritura del almacenamiento.
var ErrStoreIO = errors.New("store io failure")

// FileDocument persiste un documento en un archivo local.
//
// La escritura pasa por un archivo temporal y un rename, así un lector nunca
// ve un JSON a medio escribir. No hay lock entre procesos: dos procesos que
// comparten el archivo siguen pisándose (gana el último en escribir).
type FileDocument struct {
	path string
}

func NewFileDocument(path string) *FileDocument {
	return &FileDocument{path: path}
}

func (d *FileDocument) Path() string {
	return d.path
}

func (d *FileDocument) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrStoreIO, d.path, err)
	}
	return data, nil
}

func (d *FileDocument) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: mkdir %s: %v", ErrStoreIO, dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(d.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp: %v", ErrStoreIO, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %v", ErrStoreIO, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: close %s: %v", ErrStoreIO, tmpName, err)
	}
	if err := os.Rename(tmpName, d.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: rename %s: %v", ErrStoreIO, d.path, err)
	}
	return nil
}

// MemoryDocument guarda el documento en memoria. Útil en tests.
type MemoryDocument struct {
	mu      sync.Mutex
	data    []byte
	loadErr error
	saveErr error
}

func NewMemoryDocument(initial []byte) *MemoryDocument {
	return &MemoryDocument{data: cloneBytes(initial)}
}

func (d *MemoryDocument) Load(_ context.Context) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loadErr != nil {
		return nil, d.loadErr
	}
	return cloneBytes(d.data), nil
}

func (d *MemoryDocument) Save(_ context.Context, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.saveErr != nil {
		return d.saveErr
	}
	d.data = cloneBytes(data)
	return nil
}

// Bytes devuelve una copia del contenido guardado.
func (d *MemoryDocument) Bytes() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return cloneBytes(d.data)
}

// FailWith hace que las siguientes operaciones devuelvan los errores dados.
func (d *MemoryDocument) FailWith(loadErr, saveErr error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loadErr = loadErr
	d.saveErr = saveErr
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
