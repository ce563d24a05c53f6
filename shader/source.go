package shader

import (
	"regexp"
	"strings"

	"github.com/gogpu/naga/glsl"

	"github.com/gogpu/ripple/gl"
)

// Directive returns the #version line for a shading language version.
// GLSL ES 1.00 is spelled "#version 100" and desktop versions before 1.50
// have no profile suffix.
func Directive(v glsl.Version) string {
	if (v.ES && v.Major < 3) || (!v.ES && number(v) < 150) {
		return "#version " + v.VersionNumber()
	}
	return "#version " + v.String()
}

func number(v glsl.Version) int { return int(v.Major)*100 + int(v.Minor) }

// usesInOut reports whether v replaced attribute/varying with in/out.
func usesInOut(v glsl.Version) bool {
	if v.ES {
		return v.Major >= 3
	}
	return number(v) >= 130
}

var (
	reVersion   = regexp.MustCompile(`(?m)^\s*#version[^\n]*\n?`)
	reAttribute = regexp.MustCompile(`\battribute\b`)
	reVarying   = regexp.MustCompile(`\bvarying\b`)
	reTexture2D = regexp.MustCompile(`\btexture2D\s*\(`)
	reFragColor = regexp.MustCompile(`\bgl_FragColor\b`)
	rePrecision = regexp.MustCompile(`(?m)^\s*precision\s+\w+\s+float\s*;[^\n]*\n`)
)

const fragColorOut = "fragColor"

// Source prepares a GLSL ES 1.00 stage for a context speaking version v.
// Any existing #version line is replaced. For ES 3.00 and GLSL 1.30+ the
// legacy qualifiers and built-ins are rewritten to their in/out forms.
func Source(src string, stage gl.ShaderType, v glsl.Version) string {
	src = reVersion.ReplaceAllString(src, "")
	if usesInOut(v) {
		src = upgrade(src, stage)
	}
	return Directive(v) + "\n" + src
}

func upgrade(src string, stage gl.ShaderType) string {
	if stage == gl.VertexShader {
		src = reAttribute.ReplaceAllString(src, "in")
		return reVarying.ReplaceAllString(src, "out")
	}

	src = reVarying.ReplaceAllString(src, "in")
	src = reTexture2D.ReplaceAllString(src, "texture(")
	if !reFragColor.MatchString(src) {
		return src
	}
	src = reFragColor.ReplaceAllString(src, fragColorOut)

	decl := "out vec4 " + fragColorOut + ";\n"
	// Output declarations must follow the default precision statement.
	if loc := rePrecision.FindStringIndex(src); loc != nil {
		return src[:loc[1]] + decl + src[loc[1]:]
	}
	return decl + strings.TrimLeft(src, "\n")
}
