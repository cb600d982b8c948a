package command

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

var (
	runCommandOutputFn        = runCommandOutput
	readFileFn                = os.ReadFile
	readDirFn                 = os.ReadDir
	detectSessionX11EnvFn     = detectSessionX11Env
	detectDisplayFromSocketFn = detectDisplayFromSockets
)

// X11Session holds the hints used to reach an X server from a process that
// may have been started without a graphical environment (MCP clients often
// launch servers that way).
type X11Session struct {
	Display    string
	XAuthority string
}

// Environ returns env with DISPLAY and XAUTHORITY filled in. Values already
// present in env win, then the configured hints, then the logind session of
// the current user, then the highest-numbered socket in /tmp/.X11-unix and
// ~/.Xauthority. DISPLAY is left unset when nothing can be found.
func (s X11Session) Environ(env []string) []string {
	display := strings.TrimSpace(envLookup(env, "DISPLAY"))
	xauthority := strings.TrimSpace(envLookup(env, "XAUTHORITY"))

	if display == "" {
		display = strings.TrimSpace(s.Display)
	}
	if xauthority == "" {
		xauthority = strings.TrimSpace(s.XAuthority)
	}

	if display == "" || xauthority == "" {
		detectedDisplay, detectedXAuthority := detectSessionX11EnvFn()
		if display == "" {
			display = strings.TrimSpace(detectedDisplay)
		}
		if xauthority == "" {
			xauthority = strings.TrimSpace(detectedXAuthority)
		}
	}

	if display == "" {
		display = detectDisplayFromSocketFn("/tmp/.X11-unix")
	}

	if xauthority == "" {
		home := strings.TrimSpace(envLookup(env, "HOME"))
		if home == "" {
			if detectedHome, err := os.UserHomeDir(); err == nil {
				home = detectedHome
			}
		}
		if home != "" {
			candidate := filepath.Join(home, ".Xauthority")
			if _, err := os.Stat(candidate); err == nil {
				xauthority = candidate
			}
		}
	}

	if display != "" {
		env = upsertEnv(env, "DISPLAY", display)
	}
	if xauthority != "" {
		env = upsertEnv(env, "XAUTHORITY", xauthority)
	}
	return env
}

// Resolve returns the effective display and xauthority for in-process X11
// connections, using the current process environment as the base.
func (s X11Session) Resolve() (display string, xauthority string) {
	env := s.Environ(os.Environ())
	return envLookup(env, "DISPLAY"), envLookup(env, "XAUTHORITY")
}

func detectSessionX11Env() (display string, xauthority string) {
	uid := strconv.Itoa(os.Getuid())
	out, err := runCommandOutputFn("loginctl", "list-sessions", "--no-legend")
	if err != nil {
		return "", ""
	}
	for _, sessionID := range parseLoginctlSessions(out, uid) {
		d := strings.TrimSpace(loginctlShowSessionProp(sessionID, "Display"))
		if d == "" || strings.EqualFold(d, "n/a") {
			continue
		}

		xauth := ""
		leader := strings.TrimSpace(loginctlShowSessionProp(sessionID, "Leader"))
		if leader != "" && leader != "0" {
			if envMap, err := readProcEnviron(leader); err == nil {
				if ed := strings.TrimSpace(envMap["DISPLAY"]); ed != "" {
					d = ed
				}
				xauth = strings.TrimSpace(envMap["XAUTHORITY"])
			}
		}
		return d, xauth
	}
	return "", ""
}

func parseLoginctlSessions(output string, uid string) []string {
	var sessions []string
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) < 2 {
			continue
		}
		if fields[1] == uid {
			sessions = append(sessions, fields[0])
		}
	}
	return sessions
}

func loginctlShowSessionProp(sessionID string, prop string) string {
	out, err := runCommandOutputFn("loginctl", "show-session", sessionID, "-p", prop, "--value")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

func readProcEnviron(pid string) (map[string]string, error) {
	data, err := readFileFn(filepath.Join("/proc", pid, "environ"))
	if err != nil {
		return nil, err
	}

	env := make(map[string]string)
	for _, part := range strings.Split(string(data), "\x00") {
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		env[kv[0]] = kv[1]
	}
	return env, nil
}

func detectDisplayFromSockets(dir string) string {
	entries, err := readDirFn(dir)
	if err != nil {
		return ""
	}

	var displays []int
	for _, entry := range entries {
		name := entry.Name()
		if len(name) < 2 || name[0] != 'X' {
			continue
		}
		n, err := strconv.Atoi(name[1:])
		if err != nil {
			continue
		}
		displays = append(displays, n)
	}

	if len(displays) == 0 {
		return ""
	}
	sort.Ints(displays)
	return fmt.Sprintf(":%d", displays[len(displays)-1])
}

func envLookup(env []string, key string) string {
	prefix := key + "="
	for _, e := range env {
		if strings.HasPrefix(e, prefix) {
			return strings.TrimPrefix(e, prefix)
		}
	}
	return ""
}

func upsertEnv(env []string, key string, value string) []string {
	prefix := key + "="
	for i, e := range env {
		if strings.HasPrefix(e, prefix) {
			env[i] = prefix + value
			return env
		}
	}
	return append(env, prefix+value)
}
