package config

// validConfigYAML is a minimal valid configuration.
const validConfigYAML = `
apiVersion: gateway.gwcore.io/v1
kind: Gateway
metadata:
  name: test-gateway
spec:
  listener:
    port: 8080
  routes:
    - id: orders
      uri: http://orders.internal:8080
      order: 1
      cacheBody: true
      predicates:
        - name: Path
          args:
            prefix: /orders
      filters:
        - name: StripPrefix
          args:
            parts: "1"
`

// invalidConfigYAML parses but fails validation.
const invalidConfigYAML = `
apiVersion: gateway.gwcore.io/v1
kind: Gateway
metadata:
  name: ""
spec:
  listener:
    port: -1
`
