//go:build !windows

package output

import "testing"

func TestPleasantPath(t *testing.T) {
	type args struct {
		absolute     string
		wd           string
		omitDotSlash bool
	}
	tests := []struct {
		name string
		args args
		want string
	}{
		{name: "NextToFile_1", args: args{absolute: "/my/lib/file", wd: "/my/lib", omitDotSlash: true}, want: "file"},
		{name: "NextToFile_2", args: args{absolute: "/my/lib/file", wd: "/my/lib", omitDotSlash: false}, want: "./file"},
		{name: "FileInSub_1", args: args{absolute: "/my/lib/sub/file", wd: "/my/lib", omitDotSlash: true}, want: "sub/file"},
		{name: "FileInSub_2", args: args{absolute: "/my/lib/sub/file", wd: "/my/lib", omitDotSlash: false}, want: "./sub/file"},
		{name: "FileAbove", args: args{absolute: "/my/lib/file", wd: "/my/lib/sub", omitDotSlash: false}, want: "/my/lib/file"},
		{name: "Sibling", args: args{absolute: "/my/other/file", wd: "/my/lib", omitDotSlash: true}, want: "/my/other/file"},
		{name: "PrefixIsNotParent", args: args{absolute: "/my/library/file", wd: "/my/lib", omitDotSlash: true}, want: "/my/library/file"},
		{name: "Unclean", args: args{absolute: "/my/lib/./sub/../file", wd: "/my/lib", omitDotSlash: false}, want: "./file"},
		{name: "Relative", args: args{absolute: "sub/file", wd: "/my/lib", omitDotSlash: false}, want: "sub/file"},
		{name: "FromRoot", args: args{absolute: "/my/lib/file", wd: "/", omitDotSlash: true}, want: "my/lib/file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PleasantPath(tt.args.absolute, tt.args.wd, tt.args.omitDotSlash); got != tt.want {
				t.Errorf("PleasantPath() = %v, want %v", got, tt.want)
			}
		})
	}
}
