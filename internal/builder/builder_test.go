package builder

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/routemap/api"
	"github.com/agentic-research/routemap/internal/logging"
)

const (
	homePage = `export default function Home() {
  return <h1>Welcome</h1>
}
`
	userPage = `export default function UserPage() {
  return <h1>Hi!</h1>
}
`
	articlePage = `import type { GetStaticPaths, GetStaticProps } from 'next'

export default function ArticlePage({ title }: { title: string }) {
  return <h1>{title}</h1>
}

export const getStaticProps: GetStaticProps = async ({ params }) => {
  return { props: { title: String(params?.slug) } }
}

export function helperFunction() {}

export const CONSTANT = 1

export const getStaticPaths: GetStaticPaths = async () => {
  return { paths: [], fallback: 'blocking' }
}
`
)

func writeFile(t *testing.T, fs billy.Filesystem, path, content string) {
	t.Helper()
	require.NoError(t, util.WriteFile(fs, path, []byte(content), 0o644))
}

func readFile(t *testing.T, fs billy.Filesystem, path string) string {
	t.Helper()
	data, err := util.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}

func listFiles(t *testing.T, fs billy.Filesystem, dir string) []string {
	t.Helper()
	var out []string
	var walk func(string)
	walk = func(d string) {
		entries, err := fs.ReadDir(d)
		require.NoError(t, err)
		for _, e := range entries {
			p := filepath.ToSlash(filepath.Join(d, e.Name()))
			if e.IsDir() {
				walk(p)
				continue
			}
			out = append(out, p)
		}
	}
	walk(dir)
	return out
}

func TestBuild_HomeAndUser(t *testing.T) {
	fs := memfs.New()
	writeFile(t, fs, "Home.tsx", homePage)
	writeFile(t, fs, "User.tsx", userPage)

	b, err := NewWithFilesystem(fs, api.Options{
		PagesDir: "./pages",
		Routes: api.RouteTable{
			"/":                 "./Home.tsx",
			"/users/[username]": "./User.tsx",
		},
	}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Build())

	assert.Equal(t, "export { default } from '../Home'\n", readFile(t, fs, "pages/index.ts"))
	assert.Equal(t, "export { default } from '../../../User'\n", readFile(t, fs, "pages/users/[username]/index.ts"))
	assert.ElementsMatch(t, []string{"pages/index.ts", "pages/users/[username]/index.ts"}, listFiles(t, fs, "pages"))
}

func TestBuild_ForwardsDataHooks(t *testing.T) {
	fs := memfs.New()
	writeFile(t, fs, "src/articles/ArticlePage.tsx", articlePage)

	b, err := NewWithFilesystem(fs, api.Options{
		PagesDir: "./src/pages",
		Routes:   api.RouteTable{"/articles/[slug]": "./src/articles/ArticlePage.tsx"},
	}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Build())

	assert.Equal(t,
		"export { default, getStaticProps, getStaticPaths } from '../../../articles/ArticlePage'\n",
		readFile(t, fs, "src/pages/articles/[slug]/index.ts"))
}

func TestBuild_PreservesAndCleans(t *testing.T) {
	fs := memfs.New()
	writeFile(t, fs, "Home.tsx", homePage)
	writeFile(t, fs, "pages/ping.ts", "export default function handler() {}\n")
	writeFile(t, fs, "pages/api/hello.ts", "export default function handler() {}\n")
	writeFile(t, fs, "pages/old/page.ts", "export { default } from '../../Old'\n")

	b, err := NewWithFilesystem(fs, api.Options{
		PagesDir:      "./pages",
		Routes:        api.RouteTable{"/": "./Home.tsx"},
		PreservePaths: []string{"/ping.ts", "/api"},
	}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Build())

	_, err = fs.Stat("pages/old")
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, "export default function handler() {}\n", readFile(t, fs, "pages/ping.ts"))
	assert.ElementsMatch(t,
		[]string{"pages/index.ts", "pages/ping.ts", "pages/api/hello.ts"},
		listFiles(t, fs, "pages"))
}

func TestBuild_Idempotent(t *testing.T) {
	fs := memfs.New()
	writeFile(t, fs, "Home.tsx", homePage)
	writeFile(t, fs, "src/articles/ArticlePage.tsx", articlePage)

	b, err := NewWithFilesystem(fs, api.Options{
		PagesDir: "pages",
		Routes: api.RouteTable{
			"/":               "Home.tsx",
			"/articles/[slug]": "src/articles/ArticlePage.tsx",
		},
	}, nil)
	require.NoError(t, err)

	require.NoError(t, b.Build())
	first := map[string]string{}
	for _, p := range listFiles(t, fs, "pages") {
		first[p] = readFile(t, fs, p)
	}

	require.NoError(t, b.Build())
	second := map[string]string{}
	for _, p := range listFiles(t, fs, "pages") {
		second[p] = readFile(t, fs, p)
	}
	assert.Equal(t, first, second)
}

func TestBuild_MissingSourceFails(t *testing.T) {
	fs := memfs.New()
	writeFile(t, fs, "Home.tsx", homePage)
	writeFile(t, fs, "pages/stale.ts", "x")

	b, err := NewWithFilesystem(fs, api.Options{
		PagesDir: "pages",
		Routes: api.RouteTable{
			"/":       "Home.tsx",
			"/absent": "Absent.tsx",
		},
	}, nil)
	require.NoError(t, err)

	err = b.Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	// cleaning already happened and is not rolled back
	_, statErr := fs.Stat("pages/stale.ts")
	assert.ErrorIs(t, statErr, os.ErrNotExist)

	// the other route still finished
	assert.Equal(t, "export { default } from '../Home'\n", readFile(t, fs, "pages/index.ts"))
}

func TestBuild_TargetOutsideBaseDir(t *testing.T) {
	fs := memfs.New()
	writeFile(t, fs, "shared/Home.tsx", homePage)
	writeFile(t, fs, "app/pages/stale.ts", "x")
	writeFile(t, fs, "app/keep.ts", "keep")

	b, err := newBuilder(fs, "app", api.Options{
		PagesDir: "pages",
		Routes:   api.RouteTable{"/": "../shared/Home.tsx"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "pages", b.PagesDir())
	require.NoError(t, b.Build())

	assert.Equal(t, "export { default } from '../../shared/Home'\n", readFile(t, fs, "app/pages/index.ts"))
	assert.ElementsMatch(t, []string{"app/keep.ts", "app/pages/index.ts"}, listFiles(t, fs, "app"))
	assert.Equal(t, homePage, readFile(t, fs, "shared/Home.tsx"))
}

func TestCommonDir(t *testing.T) {
	sep := string(filepath.Separator)
	root := sep + filepath.Join("repo")
	tests := []struct {
		a, b, want string
	}{
		{filepath.Join(root, "app"), filepath.Join(root, "app", "pages"), filepath.Join(root, "app")},
		{filepath.Join(root, "app"), filepath.Join(root, "shared"), root},
		{filepath.Join(root, "app"), filepath.Join(root, "appx"), root},
		{filepath.Join(root, "app"), sep + "other", sep},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, commonDir(tt.a, tt.b), "%s + %s", tt.a, tt.b)
	}
}

func TestBuild_LogsEachRoute(t *testing.T) {
	fs := memfs.New()
	writeFile(t, fs, "Home.tsx", homePage)
	writeFile(t, fs, "User.tsx", userPage)

	var buf bytes.Buffer
	logger := logging.Wrap(logging.Console(&buf), logging.WithColor(false))

	b, err := NewWithFilesystem(fs, api.Options{
		PagesDir: "pages",
		Routes:   api.RouteTable{"/": "Home.tsx", "/users/[username]": "User.tsx"},
	}, logger)
	require.NoError(t, err)
	require.NoError(t, b.Build())

	out := buf.String()
	assert.Contains(t, out, "trace - cleaned pages directory\n")
	assert.Contains(t, out, "info  - created page module for /\n")
	assert.Contains(t, out, "info  - created page module for /users/[username]\n")
}

func TestBuild_WarnsOnSyntaxErrors(t *testing.T) {
	fs := memfs.New()
	writeFile(t, fs, "Broken.ts", "export default function Page( {\n")

	var buf bytes.Buffer
	logger := logging.Wrap(logging.Console(&buf), logging.WithColor(false))

	b, err := NewWithFilesystem(fs, api.Options{PagesDir: "pages", Routes: api.RouteTable{"/": "Broken.ts"}}, logger)
	require.NoError(t, err)
	require.NoError(t, b.Build())

	assert.Contains(t, buf.String(), "warn  - Broken.ts:")
	assert.Equal(t, "export { default } from '../Broken'\n", readFile(t, fs, "pages/index.ts"))
}

func TestBuild_ConfiguredExtension(t *testing.T) {
	fs := memfs.New()
	writeFile(t, fs, "Home.jsx", "export default function Home() { return <h1>Hi</h1> }\n")

	b, err := NewWithFilesystem(fs, api.Options{
		PagesDir:  "pages",
		Routes:    api.RouteTable{"/": "Home.jsx"},
		Extension: "js",
	}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Build())
	assert.Equal(t, "export { default } from '../Home'\n", readFile(t, fs, "pages/index.js"))
}

func TestNew_ValidatesOptions(t *testing.T) {
	_, err := NewWithFilesystem(memfs.New(), api.Options{Routes: api.RouteTable{}}, nil)
	assert.ErrorIs(t, err, api.ErrPagesDirRequired)

	_, err = New(api.Options{PagesDir: "pages"}, nil)
	assert.ErrorIs(t, err, api.ErrRoutesRequired)
}

func TestBuild_OnDiskSiblingTarget(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "app")
	require.NoError(t, os.MkdirAll(base, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "shared"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "shared", "Home.tsx"), []byte(homePage), 0o644))

	b, err := New(api.Options{
		BaseDir:  base,
		PagesDir: "pages",
		Routes:   api.RouteTable{"/": "../shared/Home.tsx"},
	}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Build())

	data, err := os.ReadFile(filepath.Join(base, "pages", "index.ts"))
	require.NoError(t, err)
	assert.Equal(t, "export { default } from '../../shared/Home'\n", string(data))
}

func TestBuild_OnDisk(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "src", "home"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "src", "home", "HomePage.tsx"), []byte(homePage), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "src", "pages", "api"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "src", "pages", "api", "ping.ts"), []byte("pong"), 0o644))

	b, err := New(api.Options{
		BaseDir:       base,
		PagesDir:      "./src/pages",
		Routes:        api.RouteTable{"/": "./src/home/HomePage.tsx"},
		PreservePaths: []string{"/api"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, base, b.BaseDir())
	require.NoError(t, b.Build())

	data, err := os.ReadFile(filepath.Join(base, "src", "pages", "index.ts"))
	require.NoError(t, err)
	assert.Equal(t, "export { default } from '../home/HomePage'\n", string(data))

	data, err = os.ReadFile(filepath.Join(base, "src", "pages", "api", "ping.ts"))
	require.NoError(t, err)
	assert.Equal(t, "pong", string(data))
}
