package devserver

// ClientScript connects to /livereload/ws, falling back to SSE at
// /livereload, and reloads the page or its stylesheets on each message.
const ClientScript = `(() => {
  if (window.__sitesmithLR) return;
  window.__sitesmithLR = true;
  const refreshCSS = () => {
    document.querySelectorAll('link[rel="stylesheet"]').forEach((link) => {
      const url = new URL(link.href, location.href);
      url.searchParams.set('lr', Date.now());
      link.href = url.toString();
    });
  };
  const handle = (raw) => {
    try {
      const msg = JSON.parse(raw);
      if (msg.kind === 'css') { refreshCSS(); } else { location.reload(); }
    } catch (_) {}
  };
  const sse = () => {
    const es = new EventSource('/livereload');
    es.onmessage = (e) => handle(e.data);
    es.onerror = () => { es.close(); setTimeout(connect, 2000); };
  };
  const connect = () => {
    if (!('WebSocket' in window)) { sse(); return; }
    const proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
    const ws = new WebSocket(proto + '//' + location.host + '/livereload/ws');
    let opened = false;
    ws.onopen = () => { opened = true; };
    ws.onmessage = (e) => handle(e.data);
    ws.onclose = () => { if (opened) { setTimeout(connect, 2000); } else { sse(); } };
  };
  connect();
})();`
