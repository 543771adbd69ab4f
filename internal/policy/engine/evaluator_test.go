package engine

import (
	"context"
	"testing"
)

func TestAllowDeviceAccess(t *testing.T) {
	e, err := NewEvaluator()
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}
	if err := e.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}

	cases := []struct {
		name      string
		viewerOrg string
		deviceOrg string
		want      bool
	}{
		{"same org", "org-1", "org-1", true},
		{"different org", "org-1", "org-2", false},
		{"viewer without org", "", "org-1", false},
		{"unowned device", "org-1", "", false},
		{"both empty", "", "", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := e.AllowDeviceAccess(context.Background(), c.viewerOrg, c.deviceOrg)
			if err != nil {
				t.Fatalf("AllowDeviceAccess: %v", err)
			}
			if got != c.want {
				t.Errorf("AllowDeviceAccess(%q, %q) = %v, want %v", c.viewerOrg, c.deviceOrg, got, c.want)
			}
		})
	}
}
