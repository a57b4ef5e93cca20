package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userPage = `import { GetServerSideProps } from 'next'

type Props = {
  user: { name: string },
}

export default function UserPage({ user }: Props) {
  return (
    <h1>Hi, {user.name}!</h1>
  )
}

export const getServerSideProps: GetServerSideProps<Props> = async ({ params }) => {
  return { props: { user: { name: String(params?.username) } } }
}
`

func TestExports_FiltersToDataHooks(t *testing.T) {
	src := []byte(`
export default function Page() { return null }

export async function getStaticProps() {
  return { props: {} }
}

export function helperFunction() {}

export const CONSTANT = 42
`)
	names, err := Exports(src, "Page.ts")
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "getStaticProps"}, names)
}

func TestExports_TSX(t *testing.T) {
	names, err := Exports([]byte(userPage), "src/users/UserPage.tsx")
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "getServerSideProps"}, names)
}

func TestExports_DeclarationOrder(t *testing.T) {
	src := []byte(`
export const getStaticPaths = async () => ({ paths: [], fallback: false })
export default function Article() { return null }
export const getStaticProps = async () => ({ props: {} })
`)
	names, err := Exports(src, "Article.ts")
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "getStaticPaths", "getStaticProps"}, names)
}

func TestExports_DefaultOnly(t *testing.T) {
	names, err := Exports([]byte(`export default function Home() { return null }`), "Home.tsx")
	require.NoError(t, err)
	assert.Equal(t, []string{"default"}, names)
}

func TestExports_NoDefaultStillForwardsDefault(t *testing.T) {
	names, err := Exports([]byte(`export const getServerSideProps = () => ({ props: {} })`), "Broken.ts")
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "getServerSideProps"}, names)
}

func TestExports_JavaScript(t *testing.T) {
	src := []byte(`
export default function Home() {
  return <main>Welcome</main>
}

export function getStaticProps() {
  return { props: {} }
}
`)
	names, err := Exports(src, "Home.jsx")
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "getStaticProps"}, names)
}

func TestExportedNames_Shapes(t *testing.T) {
	src := []byte(`
import { x } from './x'

const local = 1
function getStaticPaths() {}

export { local }
export * from './other'
export const a = 1, b = 2
export let c
export var d = 3
export const { e, f } = obj
export const [g] = arr
export function* h() {}
export class K {}
export default function getServerSideProps() {}

function nested() {
  const getStaticProps = 1
}
`)
	m, err := Parse(src, "shapes.ts")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "h"}, m.ExportedNames())
	// getStaticPaths is declared but not exported; the default export is
	// covered by the alias.
	assert.Equal(t, []string{"default"}, m.Exports())
}

func TestExports_Deduplicates(t *testing.T) {
	src := []byte(`
export function getStaticProps(): Promise<object>
export function getStaticProps() { return Promise.resolve({ props: {} }) }
export default function Page() { return null }
`)
	names, err := Exports(src, "Overloads.ts")
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "getStaticProps"}, names)
}

func TestExports_CaseSensitive(t *testing.T) {
	names, err := Exports([]byte(`export const GetStaticProps = 1`), "Case.ts")
	require.NoError(t, err)
	assert.Equal(t, []string{"default"}, names)
}

func TestDetectLanguage(t *testing.T) {
	tests := map[string]string{
		"a.ts":  "typescript",
		"a.mts": "typescript",
		"a.tsx": "tsx",
		"a.TSX": "tsx",
		"a.js":  "javascript",
		"a.jsx": "javascript",
		"a.cjs": "javascript",
		"a":     "typescript",
	}
	for path, want := range tests {
		name, lang := DetectLanguage(path)
		assert.Equal(t, want, name, path)
		assert.NotNil(t, lang, path)
	}
}

func TestDiagnostics(t *testing.T) {
	m, err := Parse([]byte(userPage), "UserPage.tsx")
	require.NoError(t, err)
	assert.Empty(t, m.Diagnostics())

	broken, err := Parse([]byte("export function getStaticProps( {\n"), "Broken.ts")
	require.NoError(t, err)
	diags := broken.Diagnostics()
	require.NotEmpty(t, diags)
	assert.Equal(t, "Broken.ts", diags[0].Path)
	assert.Contains(t, diags[0].Error(), "Broken.ts:")
}

func TestDiagnostics_DescribeNodes(t *testing.T) {
	src := "export const a = ;\nexport function getStaticProps( {\n"
	m, err := Parse([]byte(src), "Broken.ts")
	require.NoError(t, err)

	diags := m.Diagnostics()
	require.NotEmpty(t, diags)
	for i, d := range diags {
		assert.Regexp(t, `^(unexpected|expected) `, d.Message)
		if i > 0 {
			prev := diags[i-1]
			assert.True(t, prev.Line < d.Line || (prev.Line == d.Line && prev.Column <= d.Column),
				"diagnostics out of order: %v before %v", prev, d)
		}
	}
}
