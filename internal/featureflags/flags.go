// Package featureflags evaluates rollout flags configured as a
// comma-separated list, for example "ai_triage=on,realtime_push=25%".
package featureflags

import (
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// Known flags.
const (
	// AITriage routes support triage through the hosted classifier instead of
	// the rule-based one.
	AITriage = "ai_triage"
	// RealtimePush publishes relationship events to connected clients.
	RealtimePush = "realtime_push"
)

// Manager holds parsed flag values. A nil Manager reports every flag off.
type Manager struct {
	values map[string]string
}

// Parse builds a Manager from raw. Malformed entries are skipped.
func Parse(raw string) *Manager {
	values := make(map[string]string)
	for _, entry := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		key, value = clean(key), clean(value)
		if key == "" || value == "" {
			continue
		}
		values[key] = value
	}
	return &Manager{values: values}
}

// Enabled reports whether name is on for userID. Values on/true/1 and
// off/false/0 are absolute; "N%" enables a stable N percent of users.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	value, ok := m.values[clean(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	switch {
	case err != nil || pct <= 0:
		return false
	case pct >= 100:
		return true
	case userID == 0:
		return false
	}
	return bucket(name, userID) < pct
}

// EnabledGlobally reports whether name is on independent of any user.
// Percentage rollouts count as off.
func (m *Manager) EnabledGlobally(name string) bool {
	return m.Enabled(name, 0)
}

// Names returns the configured flag names in sorted order.
func (m *Manager) Names() []string {
	if m == nil {
		return nil
	}
	names := make([]string, 0, len(m.values))
	for k := range m.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Snapshot evaluates every configured flag for userID.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool)
	for _, name := range m.Names() {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(clean(name) + ":" + strconv.FormatUint(uint64(userID), 10)))
	return int(h.Sum32() % 100)
}
