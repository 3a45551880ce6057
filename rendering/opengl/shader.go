package opengl

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

const globeVertexShader = `
#version 410 core

layout(location = 0) in vec3 position;
layout(location = 1) in vec3 normal;
layout(location = 2) in vec2 texCoord;

uniform mat4 projection;
uniform mat4 view;
uniform mat4 model;

out vec3 viewNormal;
out vec3 viewPos;
out vec2 uv;

void main() {
    vec4 p = view * model * vec4(position, 1.0);
    viewPos = p.xyz;
    viewNormal = mat3(view * model) * normal;
    uv = texCoord;
    gl_Position = projection * p;
}
`

// Light sits at the camera. Blended normals are not unit length and may
// vanish mid-morph, so both sides are lit and degenerate normals face the
// viewer.
const globeFragmentShader = `
#version 410 core

in vec3 viewNormal;
in vec3 viewPos;
in vec2 uv;

uniform vec4 color;
uniform bool textured;
uniform sampler2D surface;

out vec4 outColor;

void main() {
    vec3 n = length(viewNormal) > 1e-6 ? normalize(viewNormal) : vec3(0.0, 0.0, 1.0);
    vec3 toLight = normalize(-viewPos);
    float diffuse = 0.8 * abs(dot(n, toLight));
    vec4 base = color;
    if (textured) {
        base *= texture(surface, uv);
    }
    outColor = vec4(base.rgb * (0.2 + diffuse), base.a);
}
`

// compileShader compiles a single shader
func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)

	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile failed: %s", strings.TrimRight(log, "\x00"))
	}

	return shader, nil
}

// newProgram compiles and links a vertex and fragment shader pair.
func newProgram(vertexSource, fragmentSource string) (uint32, error) {
	vertShader, err := compileShader(vertexSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex shader: %w", err)
	}
	defer gl.DeleteShader(vertShader)

	fragShader, err := compileShader(fragmentSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, fmt.Errorf("fragment shader: %w", err)
	}
	defer gl.DeleteShader(fragShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertShader)
	gl.AttachShader(program, fragShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link failed: %s", strings.TrimRight(log, "\x00"))
	}

	return program, nil
}

func uniform(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}
