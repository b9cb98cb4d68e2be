package waveform

import "testing"

func TestRenderAnchorsAndPointCount(t *testing.T) {
	snapshot := make([]byte, 1024)
	for i := range snapshot {
		snapshot[i] = byte(i)
	}
	p := Render(snapshot, DefaultWidth, DefaultHeight)

	if len(p.Points) != len(snapshot)+2 {
		t.Fatalf("expected %d points, got %d", len(snapshot)+2, len(p.Points))
	}
	if first := p.Points[0]; first != (Point{X: 0, Y: 48}) {
		t.Errorf("expected path to start at (0,48), got %+v", first)
	}
	if last := p.Points[len(p.Points)-1]; last != (Point{X: 300, Y: 48}) {
		t.Errorf("expected path to end at (300,48), got %+v", last)
	}
}

func TestRenderFormula(t *testing.T) {
	p := Render([]byte{0, 64, 255, 128}, 300, 96)

	want := []Point{
		{0, 48},
		{0, 48},
		{75, 24},
		{150, 48 - (255.0/128)*48},
		{225, 0},
		{300, 48},
	}
	for i, w := range want {
		if p.Points[i] != w {
			t.Errorf("point %d: expected %+v, got %+v", i, w, p.Points[i])
		}
	}
}

func TestRenderConstantSnapshotIsFlat(t *testing.T) {
	for _, m := range []byte{0, 128, 200} {
		snapshot := make([]byte, 64)
		for i := range snapshot {
			snapshot[i] = m
		}
		p := Render(snapshot, 300, 96)

		y := p.Points[1].Y
		for i, pt := range p.Points[1 : len(p.Points)-1] {
			if pt.Y != y {
				t.Fatalf("magnitude %d: point %d at y=%v, expected flat line at %v", m, i+1, pt.Y, y)
			}
		}
	}

	silent := Render(make([]byte, 16), 300, 96)
	for i, pt := range silent.Points {
		if pt.Y != 48 {
			t.Errorf("silent point %d: expected y=48, got %v", i, pt.Y)
		}
	}
}

func TestRenderEmptySnapshot(t *testing.T) {
	p := Render(nil, 300, 96)
	if len(p.Points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(p.Points))
	}
	if got := p.String(); got != "M0,48 L300,48" {
		t.Errorf("unexpected path %q", got)
	}
}

func TestPathString(t *testing.T) {
	p := Render([]byte{0, 64}, 300, 96)
	if got, want := p.String(), "M0,48 L0,48 L150,24 L300,48"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if (Path{}).String() != "" {
		t.Error("expected empty path data for empty path")
	}
}
