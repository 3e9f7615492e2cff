package pubsub

import "testing"

func TestTopicResourceName(t *testing.T) {
	cases := []struct {
		project, name, want string
	}{
		{"shop-prod", "shopfront-domain-events", "projects/shop-prod/topics/shopfront-domain-events"},
		{"shop-prod", "projects/other/topics/x", "projects/other/topics/x"},
		{"shop-prod", "  ", ""},
		{"", "events", ""},
	}
	for _, tc := range cases {
		if got := TopicResourceName(tc.project, tc.name); got != tc.want {
			t.Fatalf("TopicResourceName(%q, %q) = %q, want %q", tc.project, tc.name, got, tc.want)
		}
	}
}
