package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCmd(t *testing.T) {
	cases := map[string]struct {
		args  []string
		stdin string
		want  string
	}{
		"args": {
			args: []string{"ls -la > out &"},
			want: `argv=["ls" "-la"] background=true input="" output="out"` + "\n",
		},
		"stdin": {
			stdin: "# comment\necho $$\n",
			want: nothingToDo + "\n" +
				fmt.Sprintf(`argv=["echo" "%d"] background=false input="" output=""`, os.Getpid()) + "\n",
		},
		"long line continues": {
			stdin: "echo " + strings.Repeat("a", 2100) + "\n",
			want: fmt.Sprintf(`argv=["echo" %q] background=false input="" output=""`, strings.Repeat("a", 2044)) + "\n" +
				fmt.Sprintf(`argv=[%q] background=false input="" output=""`, strings.Repeat("a", 56)) + "\n",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			out := &bytes.Buffer{}
			rootCmd.SetOut(out)
			rootCmd.SetIn(strings.NewReader(tc.stdin))
			rootCmd.SetArgs(append([]string{"parse"}, tc.args...))

			require.NoError(t, rootCmd.Execute())
			assert.Equal(t, tc.want, out.String())
		})
	}
}
