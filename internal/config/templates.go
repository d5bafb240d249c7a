package config

// DefaultConfigTemplate is written by 'bundler config init'.
// It builds a single-page application into a backend's static directory.
const DefaultConfigTemplate = `# bundler configuration
entryPoints:
  main: ./src/main.js

aliases:
  - prefix: "@"
    target: ./src

plugins:
  - name: vue
  - name: css
  - name: css-injected-by-js

outDir: ../backend/static/vue
namingTemplate: "{name}.js"
`
