package web

// Single page dashboard: equity chart, latest valuation, alert and trade feeds.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>papertrade</title>
  <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
  <link href="https://fonts.googleapis.com/css2?family=Press+Start+2P&family=Space+Mono:wght@400;700&display=swap" rel="stylesheet">
  <style>
    :root { --bg:#fff; --ink:#111; --ink-mid:#4d4d4d; --ink-soft:#9c9c9c; --panel:#f6f6f6; --up:#1b9aaa; --down:#d7263d; }
    * { box-sizing:border-box; }
    body { margin:0; min-height:100vh; padding:2rem; background:var(--bg); color:var(--ink); font-family:'Space Mono',monospace; }
    #app { width:min(1400px,96vw); margin:0 auto; background:var(--panel); border:3px solid var(--ink); padding:2rem;
           box-shadow:12px 12px 0 rgba(0,0,0,.15); display:grid; grid-template-columns:1fr 380px; gap:2rem; }
    header { display:flex; justify-content:space-between; align-items:flex-start; gap:1rem; }
    .eyebrow { font-family:'Press Start 2P',monospace; font-size:.55rem; text-transform:uppercase; letter-spacing:.2em; margin:0; }
    .status { font-size:.65rem; text-transform:uppercase; border:2px solid var(--ink); padding:.4rem .9rem; background:#fff; }
    canvas { width:100%; border:2px solid var(--ink); background:#fff; }
    .equity { border:3px solid var(--ink); padding:1.2rem; background:#fff; margin-top:1rem; }
    .equity .label { font-size:.62rem; text-transform:uppercase; letter-spacing:.2em; color:var(--ink-mid); }
    .equity .value { margin-top:.8rem; font-size:1.8rem; font-weight:700; }
    .pl.up { color:var(--up); } .pl.down { color:var(--down); }
    .feed { display:flex; flex-direction:column; gap:.6rem; max-height:40vh; overflow-y:auto; }
    .card { border:2px solid var(--ink); padding:.8rem; background:#fff; font-size:.7rem; line-height:1.4; }
    .card .time { color:var(--ink-mid); font-size:.6rem; }
    .buy { color:var(--up); font-weight:700; } .sell { color:var(--down); font-weight:700; }
    h3 { font-family:'Press Start 2P',monospace; font-size:.6rem; text-transform:uppercase; border-bottom:2px solid var(--ink); padding-bottom:.8rem; }
    @media (max-width:640px) { #app { grid-template-columns:1fr; padding:1.2rem; } }
  </style>
</head>
<body>
  <div id="app">
    <main>
      <header>
        <p class="eyebrow">papertrade dashboard</p>
        <div id="status" class="status">Connecting…</div>
      </header>
      <canvas id="chart" height="320"></canvas>
      <div class="equity">
        <div class="label">Total value</div>
        <div id="total" class="value">—</div>
        <div id="pl" class="pl"></div>
      </div>
    </main>
    <aside>
      <h3>Alerts</h3>
      <div id="alerts" class="feed"></div>
      <h3>Trades</h3>
      <div id="trades" class="feed"></div>
    </aside>
  </div>
<script>
const MAX_ITEMS = 50;
const statusEl = document.getElementById('status');
const chart = new Chart(document.getElementById('chart').getContext('2d'), {
  type: 'line',
  data: { labels: [], datasets: [{ label: 'equity', data: [], borderColor: '#111', borderWidth: 2, pointRadius: 0, tension: 0.15 }] },
  options: { animation: false, responsive: true, plugins: { legend: { display: false } } }
});

const fmtTime = (ts) => {
  const d = new Date(ts);
  return Number.isNaN(d.getTime()) ? '' : d.toLocaleTimeString([], { hour12: false });
};

function prepend(container, card){
  container.insertBefore(card, container.firstChild);
  while(container.children.length > MAX_ITEMS){ container.removeChild(container.lastChild); }
}

function onSnapshot(s){
  chart.data.labels.push(fmtTime(s.ts));
  chart.data.datasets[0].data.push(parseFloat(s.total_value));
  chart.update('none');
  document.getElementById('total').textContent = parseFloat(s.total_value).toFixed(2) + ' ' + (s.quote_currency || '');
  const pl = parseFloat(s.profit_loss_percent);
  const plEl = document.getElementById('pl');
  plEl.textContent = (pl >= 0 ? '+' : '') + pl.toFixed(2) + '%  ·  ' + s.trades_count + ' trades';
  plEl.className = 'pl ' + (pl >= 0 ? 'up' : 'down');
}

function onAlert(a){
  const card = document.createElement('div');
  card.className = 'card';
  card.innerHTML = '<div class="time"></div><div class="msg"></div>';
  card.querySelector('.time').textContent = fmtTime(a.ts);
  card.querySelector('.msg').textContent = a.message;
  prepend(document.getElementById('alerts'), card);
}

function onTrade(t){
  const card = document.createElement('div');
  card.className = 'card';
  card.innerHTML = '<div class="time"></div><span class="side"></span> <span class="body"></span>';
  card.querySelector('.time').textContent = fmtTime(t.ts) + ' · ' + t.venue;
  const side = card.querySelector('.side');
  side.className = t.side;
  side.textContent = t.side.toUpperCase();
  card.querySelector('.body').textContent = t.amount + ' ' + t.pair + ' @ ' + parseFloat(t.price).toFixed(2);
  prepend(document.getElementById('trades'), card);
}

function connect(path, event, handler, onOpen){
  const source = new EventSource(path);
  source.addEventListener(event, (e) => {
    try { handler(JSON.parse(e.data)); } catch(err) { console.error(event, err); }
  });
  if(onOpen){ source.addEventListener('open', onOpen); }
  source.addEventListener('error', () => {
    if(onOpen){ statusEl.textContent = 'Reconnecting…'; }
    source.close();
    setTimeout(() => connect(path, event, handler, onOpen), 2000);
  });
}

connect('/portfolio/stream', 'portfolio', onSnapshot, () => { statusEl.textContent = 'Live'; });
connect('/alerts/stream', 'alert', onAlert);
connect('/trades/stream', 'trade', onTrade);
</script>
</body>
</html>`
