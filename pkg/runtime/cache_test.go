package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/nodalchain/core/pkg/chainhash"
	"github.com/nodalchain/core/pkg/wasmerr"
)

// fakeInstance is a test double standing in for a wazero-backed instance.
type fakeInstance struct {
	id              int
	heapPages       uint64
	acceptAnyUpdate bool
	version         RuntimeVersion
	panicOnCall     bool
	callErr         error
}

func (f *fakeInstance) UpdateHeapPages(pages uint64) bool {
	if pages == f.heapPages {
		return true
	}
	if f.acceptAnyUpdate {
		f.heapPages = pages
		return true
	}
	return false
}

func (f *fakeInstance) Call(ext Externalities, method string, argument []byte) ([]byte, error) {
	if f.panicOnCall {
		panic("guest trapped")
	}
	if f.callErr != nil {
		return nil, f.callErr
	}
	return EncodeVersion(f.version), nil
}

// fakeEngine builds fakeInstances and counts how many times it was asked
// to, so tests can assert Fetch reuses a cached instance instead of
// rebuilding it on a repeat call with the same code hash.
type fakeEngine struct {
	builds          int
	nextAcceptAny   bool
	nextPanic       bool
	nextCallErr     error
	nextCreateErr   error
	versionTemplate RuntimeVersion
}

func (f *fakeEngine) CreateInstance(code []byte, heapPages uint64) (Instance, error) {
	f.builds++
	if f.nextCreateErr != nil {
		return nil, f.nextCreateErr
	}
	return &fakeInstance{
		id:              f.builds,
		heapPages:       heapPages,
		acceptAnyUpdate: f.nextAcceptAny,
		version:         f.versionTemplate,
		panicOnCall:     f.nextPanic,
		callErr:         f.nextCallErr,
	}, nil
}

func testExternalities(t *testing.T, code []byte, heapPages *uint64) *externalitiesStub {
	t.Helper()
	return &externalitiesStub{code: code, heapPages: heapPages}
}

// externalitiesStub is a minimal runtime.Externalities for tests. It reads
// :heappages through a pointer so a test can change the value between
// fetches.
type externalitiesStub struct {
	code      []byte
	heapPages *uint64
}

func (s *externalitiesStub) OriginalStorage(key []byte) ([]byte, bool) {
	switch string(key) {
	case KeyCode:
		if s.code == nil {
			return nil, false
		}
		return s.code, true
	case KeyHeapPages:
		if s.heapPages == nil {
			return nil, false
		}
		buf := make([]byte, 8)
		putU64LE(buf, *s.heapPages)
		return buf, true
	default:
		return nil, false
	}
}

func (s *externalitiesStub) OriginalStorageHash(key []byte) (chainhash.Hash, bool) {
	v, ok := s.OriginalStorage(key)
	if !ok {
		return chainhash.Hash{}, false
	}
	return chainhash.Sum(v), true
}

func putU64LE(buf []byte, v uint64) {
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
}

func TestFetchMissingCode(t *testing.T) {
	engine := &fakeEngine{}
	cache := NewCache(engine, nil)
	ext := testExternalities(t, nil, nil)

	_, _, err := cache.Fetch(context.Background(), ext, Interpreted, 64)
	var rcErr *Error
	if !errors.As(err, &rcErr) || rcErr.Kind != InvalidCode {
		t.Fatalf("expected InvalidCode error, got %v", err)
	}
}

func TestFetchIsIdempotent(t *testing.T) {
	engine := &fakeEngine{versionTemplate: RuntimeVersion{SpecName: "test", SpecVersion: 1}}
	cache := NewCache(engine, nil)
	ext := testExternalities(t, []byte("code-bytes"), nil)

	rt1, hash1, err := cache.Fetch(context.Background(), ext, Interpreted, 64)
	if err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	rt2, hash2, err := cache.Fetch(context.Background(), ext, Interpreted, 64)
	if err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}

	if engine.builds != 1 {
		t.Fatalf("expected exactly one build, got %d", engine.builds)
	}
	if hash1 != hash2 {
		t.Fatalf("code hash changed across identical fetches")
	}
	if rt1.Instance != rt2.Instance {
		t.Fatalf("expected the same underlying instance to be reused")
	}
	if !rt1.Version.Equal(rt2.Version) {
		t.Fatalf("expected bit-equal versions, got %+v vs %+v", rt1.Version, rt2.Version)
	}
}

func TestFetchHeapPagesUpdateInPlace(t *testing.T) {
	engine := &fakeEngine{nextAcceptAny: true}
	cache := NewCache(engine, nil)
	pages := uint64(64)
	ext := testExternalities(t, []byte("code-bytes"), &pages)

	rt1, _, err := cache.Fetch(context.Background(), ext, Interpreted, 64)
	if err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}

	pages = 128
	rt2, _, err := cache.Fetch(context.Background(), ext, Interpreted, 64)
	if err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}

	if engine.builds != 1 {
		t.Fatalf("expected heap-pages change to reuse the instance, got %d builds", engine.builds)
	}
	if rt1.Instance != rt2.Instance {
		t.Fatalf("expected the same instance after an in-place heap update")
	}
}

func TestFetchHeapPagesUpdateRejectedRebuilds(t *testing.T) {
	engine := &fakeEngine{nextAcceptAny: false}
	cache := NewCache(engine, nil)
	pages := uint64(64)
	ext := testExternalities(t, []byte("code-bytes"), &pages)

	rt1, _, err := cache.Fetch(context.Background(), ext, Interpreted, 64)
	if err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}

	pages = 128
	rt2, _, err := cache.Fetch(context.Background(), ext, Interpreted, 64)
	if err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}

	if engine.builds != 2 {
		t.Fatalf("expected a rebuild on rejected heap update, got %d builds", engine.builds)
	}
	if rt1.Instance == rt2.Instance {
		t.Fatalf("expected a distinct instance after rebuild")
	}
}

func TestFetchPanicDuringVersionProbeCachesFailureThenInvalidateRecovers(t *testing.T) {
	engine := &fakeEngine{nextPanic: true}
	cache := NewCache(engine, nil)
	ext := testExternalities(t, []byte("bad-code"), nil)

	_, codeHash, err := cache.Fetch(context.Background(), ext, Interpreted, 64)
	var rcErr *Error
	if !errors.As(err, &rcErr) || rcErr.Kind != InvalidCode {
		t.Fatalf("expected a cached failure surfaced as InvalidCode, got %v", err)
	}

	// Second fetch re-surfaces the cached failure without rebuilding.
	_, _, err = cache.Fetch(context.Background(), ext, Interpreted, 64)
	if !errors.As(err, &rcErr) || rcErr.Kind != InvalidCode {
		t.Fatalf("expected cached failure on second fetch, got %v", err)
	}
	if engine.builds != 1 {
		t.Fatalf("expected no rebuild while the failure is cached, got %d builds", engine.builds)
	}

	cache.Invalidate(Interpreted, codeHash)
	engine.nextPanic = false
	engine.versionTemplate = RuntimeVersion{SpecName: "repaired"}

	rt, _, err := cache.Fetch(context.Background(), ext, Interpreted, 64)
	if err != nil {
		t.Fatalf("expected fetch to succeed after invalidate with repaired code: %v", err)
	}
	if rt.Version.SpecName != "repaired" {
		t.Fatalf("expected repaired runtime, got %+v", rt.Version)
	}
	if engine.builds != 2 {
		t.Fatalf("expected exactly one rebuild after invalidate, got %d builds", engine.builds)
	}
}

func TestFetchEngineCreateInstanceErrorSurfacesAsInvalidCode(t *testing.T) {
	engine := &fakeEngine{nextCreateErr: wasmerr.CodeNotFound("no such module")}
	cache := NewCache(engine, nil)
	ext := testExternalities(t, []byte("code-bytes"), nil)

	_, _, err := cache.Fetch(context.Background(), ext, Interpreted, 64)
	var rcErr *Error
	if !errors.As(err, &rcErr) || rcErr.Kind != InvalidCode {
		t.Fatalf("expected InvalidCode, got %v", err)
	}
}
