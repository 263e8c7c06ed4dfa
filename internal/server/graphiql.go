package server

// graphiqlPage is the in-browser IDE served on GET requests that
// accept HTML. Assets load from the esm.sh CDN; the endpoint is the
// page's own URL.
var graphiqlPage = []byte(`<!DOCTYPE html>
<html lang="en">
  <head>
    <title>GraphiQL</title>
    <style>
      body { height: 100%; margin: 0; width: 100%; overflow: hidden; }
      #graphiql { height: 100vh; }
    </style>
    <link rel="stylesheet" href="https://esm.sh/graphiql/dist/style.css" />
    <script type="importmap">
      {
        "imports": {
          "react": "https://esm.sh/react@19.1.0",
          "react/": "https://esm.sh/react@19.1.0/",
          "react-dom": "https://esm.sh/react-dom@19.1.0",
          "react-dom/": "https://esm.sh/react-dom@19.1.0/",
          "graphiql": "https://esm.sh/graphiql?standalone&external=react,react-dom,@graphiql/react",
          "@graphiql/react": "https://esm.sh/@graphiql/react?standalone&external=react,react-dom",
          "@graphiql/toolkit": "https://esm.sh/@graphiql/toolkit?standalone&external=react,react-dom"
        }
      }
    </script>
  </head>
  <body>
    <div id="graphiql">Loading...</div>
    <script type="module">
      import React from 'react';
      import ReactDOM from 'react-dom/client';
      import { GraphiQL } from 'graphiql';
      import { createGraphiQLFetcher } from '@graphiql/toolkit';

      const fetcher = createGraphiQLFetcher({ url: window.location.href });
      const root = ReactDOM.createRoot(document.getElementById('graphiql'));
      root.render(React.createElement(GraphiQL, { fetcher }));
    </script>
  </body>
</html>
`)
