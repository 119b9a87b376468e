package mesh

import (
	"sync"
	"testing"

	"github.com/binzume/fbxscene/fbx"
)

// Meshes are built from a shared, lazily materialized scene. Run with -race.
func TestLoadConcurrent(t *testing.T) {
	s := skinnedScene("arm", fbx.NewNode("Weights", []float64{0.75}))

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				m, err := Load(s, Selector{Index: 0})
				if err != nil {
					errs <- err
					return
				}
				if len(m.Vertices) != 5 || !m.Skinned() {
					t.Errorf("unexpected mesh: %d vertices", len(m.Vertices))
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	if n := len(s.Skeletons()); n != 1 {
		t.Errorf("skeleton should be built once: %d", n)
	}
}
