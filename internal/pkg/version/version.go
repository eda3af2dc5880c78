// Package version 리뷰 콘솔 바이너리의 빌드 정보를 제공합니다.
//
// 릴리스 빌드는 -ldflags "-X github.com/darkkaiser/review-console/internal/pkg/version.version=..."처럼
// 패키지 변수로 값을 주입합니다. 주입되지 않은 값은 실행 파일에 기록된 VCS 메타데이터로 채웁니다.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
)

const unknown = "unknown"

// 링커 플래그로 주입되는 값입니다. 직접 읽지 말고 Get()을 사용합니다.
var (
	version     = ""
	commit      = ""
	treeState   = ""
	buildDate   = ""
	buildNumber = ""
)

// Info 빌드 정보입니다. /version 응답과 기동 로그에 사용됩니다.
type Info struct {
	Version     string `json:"version"`
	Commit      string `json:"commit"`
	BuildDate   string `json:"build_date"`
	BuildNumber string `json:"build_number"`
	GoVersion   string `json:"go_version"`
	OS          string `json:"os"`
	Arch        string `json:"arch"`
	Dirty       bool   `json:"dirty"`
}

var current = sync.OnceValue(func() Info {
	bi, _ := debug.ReadBuildInfo()
	return resolve(injected(), bi)
})

// Get 주입된 값과 실행 파일 메타데이터를 합친 빌드 정보를 반환합니다. 최초 호출 시 한 번만 계산합니다.
func Get() Info {
	return current()
}

func injected() Info {
	return Info{
		Version:     strings.TrimSpace(version),
		Commit:      strings.TrimSpace(commit),
		BuildDate:   strings.TrimSpace(buildDate),
		BuildNumber: strings.TrimSpace(buildNumber),
		Dirty:       strings.EqualFold(strings.TrimSpace(treeState), "dirty"),
	}
}

// resolve 비어 있는 필드를 런타임 값과 VCS 메타데이터로 채웁니다. 주입된 값이 항상 우선합니다.
func resolve(info Info, bi *debug.BuildInfo) Info {
	info.GoVersion = runtime.Version()
	info.OS = runtime.GOOS
	info.Arch = runtime.GOARCH

	if bi != nil {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
				}
			case "vcs.time":
				if info.BuildDate == "" {
					info.BuildDate = s.Value
				}
			case "vcs.modified":
				info.Dirty = info.Dirty || s.Value == "true"
			}
		}

		if info.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
	}

	if info.Version == "" {
		info.Version = unknown
	}
	if info.Commit == "" {
		info.Commit = unknown
	}

	return info
}

// ShortCommit 커밋 해시의 앞 7자리입니다.
func (i Info) ShortCommit() string {
	if len(i.Commit) > 7 {
		return i.Commit[:7]
	}
	return i.Commit
}

// Fields 구조화 로그에 붙일 필드입니다.
func (i Info) Fields() map[string]any {
	return map[string]any{
		"version":      i.Version,
		"commit":       i.ShortCommit(),
		"build_date":   i.BuildDate,
		"build_number": i.BuildNumber,
		"go_version":   i.GoVersion,
		"dirty":        i.Dirty,
	}
}

// String 예: "v1.4.0+dirty (a1b2c3d, build 57, go1.24.0 linux/amd64)"
func (i Info) String() string {
	v := i.Version
	if v == "" {
		v = unknown
	}
	if i.Dirty {
		v += "+dirty"
	}

	var parts []string
	if i.Commit != "" && i.Commit != unknown {
		parts = append(parts, i.ShortCommit())
	}
	if i.BuildNumber != "" {
		parts = append(parts, "build "+i.BuildNumber)
	}
	if i.GoVersion != "" {
		parts = append(parts, strings.TrimSpace(fmt.Sprintf("%s %s/%s", i.GoVersion, i.OS, i.Arch)))
	}

	if len(parts) == 0 {
		return v
	}
	return fmt.Sprintf("%s (%s)", v, strings.Join(parts, ", "))
}
